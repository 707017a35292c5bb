package repository

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Haiikyu/reveelbox-sub005/internal/models"
	"github.com/Haiikyu/reveelbox-sub005/pkg/database"
)

type BattleRepository struct {
	db *database.DB
}

func NewBattleRepository(db *database.DB) *BattleRepository {
	return &BattleRepository{db: db}
}

// Create 새 배틀 생성 (waiting 상태)
func (r *BattleRepository) Create(battle *models.Battle) error {
	query := `
		INSERT INTO battles (id, status, box_indexes, cost, max_players, created_by)
		VALUES ($1, 'waiting', $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRow(query,
		battle.ID,
		pq.Array(battle.BoxIndexes),
		battle.Cost,
		battle.MaxPlayers,
		battle.CreatedBy,
	).Scan(&battle.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create battle: %w", err)
	}

	battle.Status = models.BattleStatusWaiting
	return nil
}

// FindByID ID로 배틀 찾기 (없으면 nil)
func (r *BattleRepository) FindByID(id string) (*models.Battle, error) {
	query := `
		SELECT id, status, box_indexes, cost, max_players, winner_ids,
		       created_by, started_at, ended_at, created_at
		FROM battles
		WHERE id = $1
	`

	battle := &models.Battle{}
	var boxIndexes pq.Int64Array
	var winnerIDs pq.StringArray

	err := r.db.QueryRow(query, id).Scan(
		&battle.ID,
		&battle.Status,
		&boxIndexes,
		&battle.Cost,
		&battle.MaxPlayers,
		&winnerIDs,
		&battle.CreatedBy,
		&battle.StartedAt,
		&battle.EndedAt,
		&battle.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find battle: %w", err)
	}

	battle.BoxIndexes = toIntSlice(boxIndexes)
	battle.WinnerIDs = winnerIDs
	return battle, nil
}

// FindByStatus 상태별 배틀 목록 (최신순)
func (r *BattleRepository) FindByStatus(status models.BattleStatus, limit, offset int) ([]*models.Battle, error) {
	query := `
		SELECT id, status, box_indexes, cost, max_players, winner_ids,
		       created_by, started_at, ended_at, created_at
		FROM battles
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query battles: %w", err)
	}
	defer rows.Close()

	var battles []*models.Battle
	for rows.Next() {
		battle := &models.Battle{}
		var boxIndexes pq.Int64Array
		var winnerIDs pq.StringArray

		err := rows.Scan(
			&battle.ID,
			&battle.Status,
			&boxIndexes,
			&battle.Cost,
			&battle.MaxPlayers,
			&winnerIDs,
			&battle.CreatedBy,
			&battle.StartedAt,
			&battle.EndedAt,
			&battle.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan battle: %w", err)
		}

		battle.BoxIndexes = toIntSlice(boxIndexes)
		battle.WinnerIDs = winnerIDs
		battles = append(battles, battle)
	}

	return battles, rows.Err()
}

// Transition 상태 전이 compare-and-set
// from 상태일 때만 to 상태로 바꾸고, 전이에 해당하는 타임스탬프를 기록한다
// 경쟁하는 두 호출 중 정확히 하나만 true를 받는다
func (r *BattleRepository) Transition(id string, from, to models.BattleStatus) (bool, error) {
	var query string
	switch to {
	case models.BattleStatusInProgress:
		query = `
			UPDATE battles
			SET status = $3, started_at = NOW()
			WHERE id = $1 AND status = $2
		`
	case models.BattleStatusCompleted:
		query = `
			UPDATE battles
			SET status = $3, ended_at = NOW()
			WHERE id = $1 AND status = $2
		`
	default:
		return false, fmt.Errorf("unsupported target status: %s", to)
	}

	result, err := r.db.Exec(query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to transition battle: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected == 1, nil
}

// SetWinners 종료된 배틀의 승자 기록
func (r *BattleRepository) SetWinners(id string, winnerIDs []string) error {
	query := `
		UPDATE battles
		SET winner_ids = $2
		WHERE id = $1 AND status = 'completed'
	`

	_, err := r.db.Exec(query, id, pq.Array(winnerIDs))
	if err != nil {
		return fmt.Errorf("failed to set winners: %w", err)
	}

	return nil
}

func toIntSlice(arr pq.Int64Array) []int {
	out := make([]int, len(arr))
	for i, v := range arr {
		out[i] = int(v)
	}
	return out
}
