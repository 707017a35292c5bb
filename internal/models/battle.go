package models

import "time"

type BattleStatus string

const (
	BattleStatusWaiting    BattleStatus = "waiting"
	BattleStatusInProgress BattleStatus = "in_progress"
	BattleStatusCompleted  BattleStatus = "completed"
)

// NextStatus 현재 상태의 유일한 다음 상태 반환 (없으면 빈 값)
// 상태는 waiting -> in_progress -> completed 순서로만 진행된다
func (s BattleStatus) NextStatus() BattleStatus {
	switch s {
	case BattleStatusWaiting:
		return BattleStatusInProgress
	case BattleStatusInProgress:
		return BattleStatusCompleted
	}
	return ""
}

type Battle struct {
	ID         string       `json:"id" db:"id"`
	Status     BattleStatus `json:"status" db:"status"`
	BoxIndexes []int        `json:"boxIndexes" db:"box_indexes"`
	Cost       int64        `json:"cost" db:"cost"`
	MaxPlayers int          `json:"maxPlayers" db:"max_players"`
	WinnerIDs  []string     `json:"winnerIds,omitempty" db:"winner_ids"`
	CreatedBy  string       `json:"createdBy" db:"created_by"`
	StartedAt  *time.Time   `json:"startedAt,omitempty" db:"started_at"`
	EndedAt    *time.Time   `json:"endedAt,omitempty" db:"ended_at"`
	CreatedAt  time.Time    `json:"createdAt" db:"created_at"`
}

// BattleDetail 배틀 상세 응답 (참가자 포함)
type BattleDetail struct {
	Battle
	Participants []*Participant `json:"participants"`
}
