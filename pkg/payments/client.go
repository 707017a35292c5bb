package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client 외부 결제 프로세서 REST 클라이언트
// 결제 프로토콜 자체는 프로세서 소유이며 여기서는 세션 생성만 위임한다
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient 결제 클라이언트 생성
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// CheckoutRequest 체크아웃 세션 생성 요청
type CheckoutRequest struct {
	UserID      string `json:"userId"`
	Coins       int64  `json:"coins"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency"`
	SuccessURL  string `json:"successUrl"`
	CancelURL   string `json:"cancelUrl"`
}

// CheckoutSession 프로세서가 생성한 호스티드 체크아웃 세션
type CheckoutSession struct {
	SessionID   string `json:"sessionId"`
	CheckoutURL string `json:"checkoutUrl"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// CreateCheckoutSession 코인 구매용 체크아웃 세션 생성
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build checkout request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	// 프로세서 측 중복 생성 방지
	httpReq.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("checkout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment processor returned status %d", resp.StatusCode)
	}

	session := &CheckoutSession{}
	if err := json.NewDecoder(resp.Body).Decode(session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}

	return session, nil
}
