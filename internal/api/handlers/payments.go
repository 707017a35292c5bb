package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Haiikyu/reveelbox-sub005/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
	webhookSecret  string
}

func NewPaymentHandler(paymentService *service.PaymentService, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		webhookSecret:  webhookSecret,
	}
}

// ListPacks 판매 중인 코인 묶음 목록
func (h *PaymentHandler) ListPacks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"packs": h.paymentService.Packs()})
}

type CheckoutRequest struct {
	PackID string `json:"packId" binding:"required"`
}

// Checkout 외부 프로세서에 체크아웃 세션 생성 위임
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.paymentService.Checkout(c.Request.Context(), currentUserID(c), req.PackID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId":   session.SessionID,
		"checkoutUrl": session.CheckoutURL,
	})
}

type WebhookRequest struct {
	UserID string `json:"userId" binding:"required"`
	Coins  int64  `json:"coins" binding:"required"`
}

// Webhook 결제 완료 통지. 공유 시크릿 헤더를 가진 프로세서만 호출 가능
func (h *PaymentHandler) Webhook(c *gin.Context) {
	secret := c.GetHeader("X-Webhook-Secret")
	if h.webhookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.webhookSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
		return
	}

	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.paymentService.ConfirmPurchase(req.UserID, req.Coins); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
