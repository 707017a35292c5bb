package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Haiikyu/reveelbox-sub005/internal/service"
	"github.com/Haiikyu/reveelbox-sub005/pkg/logger"
)

// respondError 서비스 에러를 클라이언트 상태 코드로 변환
// 예상치 못한 에러는 내부 정보 노출 없이 500으로 통일
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBattleNotFound),
		errors.Is(err, service.ErrParticipantNotFound),
		errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrParticipantExists),
		errors.Is(err, service.ErrBattleFull),
		errors.Is(err, service.ErrNotEnoughPlayers),
		errors.Is(err, service.ErrUserAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrInvalidBox),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnknownCoinPack):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})

	case errors.Is(err, service.ErrInsufficientBalance):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})

	default:
		logger.Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentUserID 인증 미들웨어가 저장한 사용자 ID
func currentUserID(c *gin.Context) string {
	if userID, exists := c.Get("userId"); exists {
		return userID.(string)
	}
	return ""
}
