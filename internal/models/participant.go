package models

import "time"

type Participant struct {
	BattleID   string    `json:"battleId" db:"battle_id"`
	UserID     string    `json:"userId" db:"user_id"`
	IsBot      bool      `json:"isBot" db:"is_bot"`
	IsReady    bool      `json:"isReady" db:"is_ready"`
	TotalValue int64     `json:"totalValue" db:"total_value"`
	JoinedAt   time.Time `json:"joinedAt" db:"joined_at"`
}
