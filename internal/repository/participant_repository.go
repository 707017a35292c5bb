package repository

import (
	"database/sql"
	"fmt"

	"github.com/Haiikyu/reveelbox-sub005/internal/models"
	"github.com/Haiikyu/reveelbox-sub005/pkg/database"
)

type ParticipantRepository struct {
	db *database.DB
}

func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// AddIfWaiting 배틀이 waiting 상태이고 자리가 남아 있을 때만 참가자 추가
// 배틀 행을 FOR UPDATE로 잠가 좌석 경쟁과 상태 전이를 직렬화한다.
// READ COMMITTED에서 스냅샷 서브쿼리만 믿으면 마지막 좌석이 이중 배정된다
// 0행이면 false. 원인 판별은 서비스 몫
func (r *ParticipantRepository) AddIfWaiting(p *models.Participant) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var maxPlayers int
	err = tx.QueryRow(`
		SELECT max_players FROM battles
		WHERE id = $1 AND status = 'waiting'
		FOR UPDATE
	`, p.BattleID).Scan(&maxPlayers)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock battle: %w", err)
	}

	// 잠금을 쥔 뒤의 조회이므로 앞서 커밋된 동시 참가를 전부 본다
	var seated int
	err = tx.QueryRow(`
		SELECT COUNT(*) FROM battle_participants WHERE battle_id = $1
	`, p.BattleID).Scan(&seated)
	if err != nil {
		return false, fmt.Errorf("failed to count participants: %w", err)
	}
	if seated >= maxPlayers {
		return false, nil
	}

	result, err := tx.Exec(`
		INSERT INTO battle_participants (battle_id, user_id, is_bot, is_ready)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (battle_id, user_id) DO NOTHING
	`, p.BattleID, p.UserID, p.IsBot, p.IsReady)
	if err != nil {
		return false, fmt.Errorf("failed to add participant: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit participant add: %w", err)
	}

	return true, nil
}

// FindByBattle 배틀의 참가자 목록 (참가 순)
func (r *ParticipantRepository) FindByBattle(battleID string) ([]*models.Participant, error) {
	query := `
		SELECT battle_id, user_id, is_bot, is_ready, total_value, joined_at
		FROM battle_participants
		WHERE battle_id = $1
		ORDER BY joined_at ASC
	`

	rows, err := r.db.Query(query, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		p := &models.Participant{}
		err := rows.Scan(&p.BattleID, &p.UserID, &p.IsBot, &p.IsReady, &p.TotalValue, &p.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}

	return participants, rows.Err()
}

// MarkReady 배틀 시작 전에만 준비 상태로 변경
// 배틀 행 FOR SHARE 잠금으로 Start의 전이 커밋과 순서를 강제한다
func (r *ParticipantRepository) MarkReady(battleID, userID string) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRow(`
		SELECT 1 FROM battles
		WHERE id = $1 AND status = 'waiting'
		FOR SHARE
	`, battleID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock battle: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE battle_participants
		SET is_ready = TRUE
		WHERE battle_id = $1 AND user_id = $2
	`, battleID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to mark ready: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit ready mark: %w", err)
	}

	return true, nil
}

// AppendLoot 박스 개봉 결과 반영 (단일 트랜잭션)
// 배틀 행 FOR SHARE 잠금 아래에서만 누적 가치를 올리고 아이템 이력을 남긴다.
// End의 전이 UPDATE는 진행 중인 개봉 커밋을 전부 기다리므로
// completed 이후에는 total_value가 변하지 않는다
func (r *ParticipantRepository) AppendLoot(battleID, userID string, boxIndex int, items []*models.LootItem) (bool, error) {
	var total int64
	for _, item := range items {
		total += item.Value
	}

	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRow(`
		SELECT 1 FROM battles
		WHERE id = $1 AND status = 'in_progress'
		FOR SHARE
	`, battleID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock battle: %w", err)
	}

	result, err := tx.Exec(`
		UPDATE battle_participants
		SET total_value = total_value + $3
		WHERE battle_id = $1 AND user_id = $2
	`, battleID, userID, total)
	if err != nil {
		return false, fmt.Errorf("failed to update total value: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	insertQuery := `
		INSERT INTO battle_loot (id, battle_id, user_id, box_index, name, image_url, value, rarity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, item := range items {
		_, err := tx.Exec(insertQuery,
			item.ID, battleID, userID, boxIndex,
			item.Name, item.ImageURL, item.Value, item.Rarity,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert loot item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit loot append: %w", err)
	}

	return true, nil
}

// FindLootByBattle 배틀의 루트 이력 (획득 순)
func (r *ParticipantRepository) FindLootByBattle(battleID string) ([]*models.LootItem, error) {
	query := `
		SELECT id, name, image_url, value, rarity
		FROM battle_loot
		WHERE battle_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query, battleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query loot: %w", err)
	}
	defer rows.Close()

	var items []*models.LootItem
	for rows.Next() {
		item := &models.LootItem{}
		err := rows.Scan(&item.ID, &item.Name, &item.ImageURL, &item.Value, &item.Rarity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loot item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
