package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Haiikyu/reveelbox-sub005/internal/service"
	"github.com/Haiikyu/reveelbox-sub005/internal/websocket"
)

// WebSocketHandler 배틀 이벤트 구독 연결 처리
type WebSocketHandler struct {
	hub           *websocket.Hub
	battleService *service.BattleService
}

// NewWebSocketHandler WebSocketHandler 생성
func NewWebSocketHandler(hub *websocket.Hub, battleService *service.BattleService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		battleService: battleService,
	}
}

// SubscribeBattle 배틀 채널 WebSocket 구독
func (h *WebSocketHandler) SubscribeBattle(c *gin.Context) {
	battleID := c.Param("id")

	// 존재하지 않는 배틀 구독 차단
	if _, err := h.battleService.Get(battleID); err != nil {
		respondError(c, err)
		return
	}

	websocket.ServeWs(h.hub, c.Writer, c.Request, battleID)
}
