package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Haiikyu/reveelbox-sub005/internal/models"
	"github.com/Haiikyu/reveelbox-sub005/pkg/database"
)

// ErrDuplicateUser 유니크 제약 위반 (username/email 중복)
var ErrDuplicateUser = errors.New("duplicate user")

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 새 사용자 생성
func (r *UserRepository) Create(username, email, passwordHash string, initialBalance int64) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, email, balance, avatar_url, created_at, updated_at
	`

	user := &models.User{}
	err := r.db.QueryRow(query, username, email, passwordHash, initialBalance).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Balance,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		// 사전 중복 검사를 통과해도 동시 가입은 여기서 걸린다
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// FindByEmail 이메일로 사용자 찾기 (없으면 nil)
func (r *UserRepository) FindByEmail(email string) (*models.User, error) {
	return r.findOne(`WHERE email = $1`, email)
}

// FindByUsername 사용자명으로 찾기 (없으면 nil)
func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	return r.findOne(`WHERE username = $1`, username)
}

// FindByID ID로 사용자 찾기 (없으면 nil)
func (r *UserRepository) FindByID(id string) (*models.User, error) {
	return r.findOne(`WHERE id = $1`, id)
}

func (r *UserRepository) findOne(where string, arg interface{}) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, balance, avatar_url, created_at, updated_at
		FROM users
	` + where

	user := &models.User{}
	err := r.db.QueryRow(query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Balance,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// DeductBalance 잔액 차감 compare-and-set (잔액 부족이면 false)
func (r *UserRepository) DeductBalance(userID string, amount int64) (bool, error) {
	query := `
		UPDATE users
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
	`

	result, err := r.db.Exec(query, userID, amount)
	if err != nil {
		return false, fmt.Errorf("failed to deduct balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected == 1, nil
}

// CreditBalance 잔액 충전 (결제 웹훅)
func (r *UserRepository) CreditBalance(userID string, amount int64) error {
	query := `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, userID, amount)
	if err != nil {
		return fmt.Errorf("failed to credit balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
