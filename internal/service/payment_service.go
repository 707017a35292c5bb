package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Haiikyu/reveelbox-sub005/internal/repository"
	"github.com/Haiikyu/reveelbox-sub005/pkg/logger"
	"github.com/Haiikyu/reveelbox-sub005/pkg/payments"
)

// CoinPack 구매 가능한 코인 묶음
type CoinPack struct {
	ID          string `json:"id"`
	Coins       int64  `json:"coins"`
	AmountCents int64  `json:"amountCents"`
}

// DefaultCoinPacks 기본 판매 구성
func DefaultCoinPacks() []CoinPack {
	return []CoinPack{
		{ID: "pack_small", Coins: 500, AmountCents: 499},
		{ID: "pack_medium", Coins: 1200, AmountCents: 999},
		{ID: "pack_large", Coins: 3000, AmountCents: 1999},
	}
}

// PaymentService 외부 결제 프로세서 위임. 세션 생성과 웹훅 반영만 담당
type PaymentService struct {
	client     *payments.Client
	userRepo   *repository.UserRepository
	packs      map[string]CoinPack
	successURL string
	cancelURL  string
}

func NewPaymentService(
	client *payments.Client,
	userRepo *repository.UserRepository,
	packs []CoinPack,
	successURL, cancelURL string,
) *PaymentService {
	packMap := make(map[string]CoinPack, len(packs))
	for _, pack := range packs {
		packMap[pack.ID] = pack
	}

	return &PaymentService{
		client:     client,
		userRepo:   userRepo,
		packs:      packMap,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// Packs 판매 중인 코인 묶음 목록
func (s *PaymentService) Packs() []CoinPack {
	packs := make([]CoinPack, 0, len(s.packs))
	for _, pack := range s.packs {
		packs = append(packs, pack)
	}
	return packs
}

// Checkout 코인 구매용 체크아웃 세션 생성
func (s *PaymentService) Checkout(ctx context.Context, userID, packID string) (*payments.CheckoutSession, error) {
	pack, ok := s.packs[packID]
	if !ok {
		return nil, ErrUnknownCoinPack
	}

	session, err := s.client.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		UserID:      userID,
		Coins:       pack.Coins,
		AmountCents: pack.AmountCents,
		Currency:    "eur",
		SuccessURL:  s.successURL,
		CancelURL:   s.cancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	logger.Info("Checkout session created",
		"userId", userID,
		"pack", packID,
		"sessionId", session.SessionID,
	)

	return session, nil
}

// ConfirmPurchase 결제 완료 웹훅 반영. 구매한 코인을 잔액에 더한다
func (s *PaymentService) ConfirmPurchase(userID string, coins int64) error {
	if userID == "" || coins <= 0 {
		return ErrInvalidInput
	}

	if err := s.userRepo.CreditBalance(userID, coins); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}

	logger.Info("Coins credited from purchase", "userId", userID, "coins", coins)
	return nil
}
