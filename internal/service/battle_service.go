package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Haiikyu/reveelbox-sub005/internal/models"
	"github.com/Haiikyu/reveelbox-sub005/pkg/logger"
)

// BattleStore 배틀 레코드 영속화
// Transition은 compare-and-set이다: 경쟁 호출 중 하나만 true를 받는다
type BattleStore interface {
	Create(battle *models.Battle) error
	FindByID(id string) (*models.Battle, error)
	FindByStatus(status models.BattleStatus, limit, offset int) ([]*models.Battle, error)
	Transition(id string, from, to models.BattleStatus) (bool, error)
	SetWinners(id string, winnerIDs []string) error
}

// ParticipantStore 참가자/루트 영속화. 조건부 쓰기만 제공한다
type ParticipantStore interface {
	AddIfWaiting(p *models.Participant) (bool, error)
	FindByBattle(battleID string) ([]*models.Participant, error)
	MarkReady(battleID, userID string) (bool, error)
	AppendLoot(battleID, userID string, boxIndex int, items []*models.LootItem) (bool, error)
	FindLootByBattle(battleID string) ([]*models.LootItem, error)
}

// WalletStore 참가비 차감/환불
type WalletStore interface {
	DeductBalance(userID string, amount int64) (bool, error)
	CreditBalance(userID string, amount int64) error
}

// EventPublisher 배틀 채널 이벤트 발행 (best-effort)
type EventPublisher interface {
	Publish(ctx context.Context, battleID string, event *models.BattleEvent) error
}

// BattleService 배틀 라이프사이클 코디네이터
// 요청 단위로만 동작하고 공유 상태를 갖지 않는다. 직렬화 지점은 스토어의 조건부 쓰기뿐이다
type BattleService struct {
	battles      BattleStore
	participants ParticipantStore
	wallets      WalletStore
	loot         *LootService
	publisher    EventPublisher
}

func NewBattleService(
	battles BattleStore,
	participants ParticipantStore,
	wallets WalletStore,
	loot *LootService,
	publisher EventPublisher,
) *BattleService {
	return &BattleService{
		battles:      battles,
		participants: participants,
		wallets:      wallets,
		loot:         loot,
		publisher:    publisher,
	}
}

// Create 배틀 생성 + 생성자 자동 참가 (참가비 선차감)
func (s *BattleService) Create(userID string, boxIndexes []int, maxPlayers int) (*models.Battle, error) {
	if userID == "" || len(boxIndexes) == 0 {
		return nil, ErrInvalidInput
	}
	if maxPlayers < 2 || maxPlayers > 4 {
		return nil, ErrInvalidInput
	}

	var cost int64
	for _, idx := range boxIndexes {
		price, err := s.loot.BoxPrice(idx)
		if err != nil {
			return nil, err
		}
		cost += price
	}

	ok, err := s.wallets.DeductBalance(userID, cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientBalance
	}

	battle := &models.Battle{
		ID:         uuid.NewString(),
		BoxIndexes: boxIndexes,
		Cost:       cost,
		MaxPlayers: maxPlayers,
		CreatedBy:  userID,
	}

	if err := s.battles.Create(battle); err != nil {
		s.refund(userID, cost)
		return nil, err
	}

	added, err := s.participants.AddIfWaiting(&models.Participant{
		BattleID: battle.ID,
		UserID:   userID,
	})
	if err != nil || !added {
		s.refund(userID, cost)
		if err == nil {
			err = fmt.Errorf("failed to seat battle creator")
		}
		return nil, err
	}

	return battle, nil
}

// Get 배틀 + 참가자 조회
func (s *BattleService) Get(battleID string) (*models.BattleDetail, error) {
	battle, err := s.battles.FindByID(battleID)
	if err != nil {
		return nil, err
	}
	if battle == nil {
		return nil, ErrBattleNotFound
	}

	participants, err := s.participants.FindByBattle(battleID)
	if err != nil {
		return nil, err
	}

	return &models.BattleDetail{
		Battle:       *battle,
		Participants: participants,
	}, nil
}

// ListJoinable 참가 가능한 배틀 목록
func (s *BattleService) ListJoinable(limit, offset int) ([]*models.Battle, error) {
	return s.battles.FindByStatus(models.BattleStatusWaiting, limit, offset)
}

// LootHistory 배틀의 루트 이력
func (s *BattleService) LootHistory(battleID string) ([]*models.LootItem, error) {
	battle, err := s.battles.FindByID(battleID)
	if err != nil {
		return nil, err
	}
	if battle == nil {
		return nil, ErrBattleNotFound
	}
	return s.participants.FindLootByBattle(battleID)
}

// Join 배틀 참가 (참가비 차감, waiting 상태에서만)
func (s *BattleService) Join(battleID, userID string) (*models.Participant, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	battle, err := s.battles.FindByID(battleID)
	if err != nil {
		return nil, err
	}
	if battle == nil {
		return nil, ErrBattleNotFound
	}
	if battle.Status != models.BattleStatusWaiting {
		return nil, ErrInvalidTransition
	}

	ok, err := s.wallets.DeductBalance(userID, battle.Cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientBalance
	}

	participant := &models.Participant{
		BattleID: battleID,
		UserID:   userID,
	}

	added, err := s.participants.AddIfWaiting(participant)
	if err != nil {
		s.refund(userID, battle.Cost)
		return nil, err
	}
	if !added {
		s.refund(userID, battle.Cost)
		return nil, s.seatRejection(battleID, userID)
	}

	s.publish(battleID, models.EventPlayerJoined, models.PlayerPayload{PlayerID: userID})
	return participant, nil
}

// Ready 준비 완료 표시 (waiting 상태에서만)
func (s *BattleService) Ready(battleID, userID string) error {
	if userID == "" {
		return ErrUnauthorized
	}

	ok, err := s.participants.MarkReady(battleID, userID)
	if err != nil {
		return err
	}
	if !ok {
		if err := s.requireStatus(battleID, models.BattleStatusWaiting); err != nil {
			return err
		}
		return ErrParticipantNotFound
	}

	s.publish(battleID, models.EventPlayerReady, models.PlayerPayload{PlayerID: userID})
	return nil
}

// AddBot 봇 참가자 추가 (waiting 상태에서만, 봇은 항상 준비 완료 + 무료)
func (s *BattleService) AddBot(battleID string) (*models.Participant, error) {
	bot := &models.Participant{
		BattleID: battleID,
		UserID:   "bot-" + uuid.NewString(),
		IsBot:    true,
		IsReady:  true,
	}

	added, err := s.participants.AddIfWaiting(bot)
	if err != nil {
		return nil, err
	}
	if !added {
		return nil, s.seatRejection(battleID, bot.UserID)
	}

	s.publish(battleID, models.EventBotAdded, bot)
	return bot, nil
}

// Start 배틀 시작. waiting -> in_progress 전이
func (s *BattleService) Start(battleID, callerID string) error {
	if callerID == "" {
		return ErrUnauthorized
	}

	participants, err := s.participants.FindByBattle(battleID)
	if err != nil {
		return err
	}
	if len(participants) == 0 {
		// 배틀 자체가 없으면 NotFound가 우선
		if err := s.requireStatus(battleID, models.BattleStatusWaiting); err != nil {
			return err
		}
		return ErrNotEnoughPlayers
	}

	moved, err := s.battles.Transition(battleID, models.BattleStatusWaiting, models.BattleStatusInProgress)
	if err != nil {
		return err
	}
	if !moved {
		if err := s.requireStatus(battleID, models.BattleStatusWaiting); err != nil {
			return err
		}
		return ErrInvalidTransition
	}

	s.publish(battleID, models.EventBattleStarted, struct{}{})
	return nil
}

// OpenBox 박스 개봉. 루트 생성 후 참가자 누적 가치와 이력에 반영
func (s *BattleService) OpenBox(battleID, playerID string, boxIndex int) ([]*models.LootItem, error) {
	if playerID == "" {
		return nil, ErrInvalidInput
	}

	items, err := s.loot.Generate(boxIndex)
	if err != nil {
		return nil, err
	}

	applied, err := s.participants.AppendLoot(battleID, playerID, boxIndex, items)
	if err != nil {
		return nil, err
	}
	if !applied {
		if err := s.requireStatus(battleID, models.BattleStatusInProgress); err != nil {
			return nil, err
		}
		return nil, ErrParticipantNotFound
	}

	s.publish(battleID, models.EventBoxOpened, models.BoxOpenedPayload{
		PlayerID: playerID,
		BoxIndex: boxIndex,
		Loot:     items,
	})

	return items, nil
}

// End 배틀 종료. in_progress -> completed 전이 후 승자 결정
func (s *BattleService) End(battleID string) ([]string, error) {
	moved, err := s.battles.Transition(battleID, models.BattleStatusInProgress, models.BattleStatusCompleted)
	if err != nil {
		return nil, err
	}
	if !moved {
		if err := s.requireStatus(battleID, models.BattleStatusInProgress); err != nil {
			return nil, err
		}
		return nil, ErrInvalidTransition
	}

	// 전이가 커밋된 순간부터 OpenBox가 막히므로 누적 가치는 동결 상태다
	participants, err := s.participants.FindByBattle(battleID)
	if err != nil {
		return nil, err
	}

	winners := ResolveWinners(participants)

	// 전이는 이미 커밋됐다. 승자 기록 실패는 참가자 재조회로 복원 가능하므로 로그만 남긴다
	if err := s.battles.SetWinners(battleID, winners); err != nil {
		logger.Error("Failed to persist battle winners",
			"battleId", battleID,
			"error", err,
		)
	}

	s.publish(battleID, models.EventBattleEnded, models.BattleEndedPayload{Winners: winners})
	return winners, nil
}

// requireStatus 조건부 쓰기가 0행이었을 때 원인 판별
// 배틀이 없으면 NotFound, 상태가 다르면 InvalidTransition, 둘 다 아니면 nil
func (s *BattleService) requireStatus(battleID string, want models.BattleStatus) error {
	battle, err := s.battles.FindByID(battleID)
	if err != nil {
		return err
	}
	if battle == nil {
		return ErrBattleNotFound
	}
	if battle.Status != want {
		return ErrInvalidTransition
	}
	return nil
}

// seatRejection 참가 insert가 0행이었을 때 원인 판별
func (s *BattleService) seatRejection(battleID, userID string) error {
	if err := s.requireStatus(battleID, models.BattleStatusWaiting); err != nil {
		return err
	}

	participants, err := s.participants.FindByBattle(battleID)
	if err != nil {
		return err
	}

	for _, p := range participants {
		if p.UserID == userID {
			return ErrParticipantExists
		}
	}

	return ErrBattleFull
}

// publish 커밋 이후의 best-effort 알림. 실패해도 연산 결과에 영향을 주지 않는다
func (s *BattleService) publish(battleID, eventType string, payload interface{}) {
	event := &models.BattleEvent{
		Type:    eventType,
		Payload: payload,
	}

	// 요청 컨텍스트와 분리: 클라이언트가 끊겨도 커밋된 전이는 알린다
	if err := s.publisher.Publish(context.Background(), battleID, event); err != nil {
		logger.Warn("Failed to publish battle event",
			"battleId", battleID,
			"type", eventType,
			"error", err,
		)
	}
}

// refund 차감 후 참가 실패 시 되돌리기
func (s *BattleService) refund(userID string, amount int64) {
	if amount == 0 {
		return
	}
	if err := s.wallets.CreditBalance(userID, amount); err != nil {
		logger.Error("Failed to refund battle cost",
			"userId", userID,
			"amount", amount,
			"error", err,
		)
	}
}
