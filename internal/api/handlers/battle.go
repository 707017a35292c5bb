package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Haiikyu/reveelbox-sub005/internal/service"
)

type BattleHandler struct {
	battleService *service.BattleService
}

func NewBattleHandler(battleService *service.BattleService) *BattleHandler {
	return &BattleHandler{
		battleService: battleService,
	}
}

type CreateBattleRequest struct {
	BoxIndexes []int `json:"boxIndexes" binding:"required"`
	MaxPlayers int   `json:"maxPlayers"`
}

// CreateBattle 배틀 생성 (생성자 자동 참가)
func (h *BattleHandler) CreateBattle(c *gin.Context) {
	var req CreateBattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.MaxPlayers == 0 {
		req.MaxPlayers = 2
	}

	battle, err := h.battleService.Create(currentUserID(c), req.BoxIndexes, req.MaxPlayers)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"battle": battle})
}

// GetBattle 배틀 + 참가자 조회
func (h *BattleHandler) GetBattle(c *gin.Context) {
	detail, err := h.battleService.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ListBattles 참가 가능한 배틀 목록
func (h *BattleHandler) ListBattles(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	battles, err := h.battleService.ListJoinable(pageSize, (page-1)*pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"battles": battles,
		"count":   len(battles),
	})
}

// JoinBattle 배틀 참가 (참가비 차감)
func (h *BattleHandler) JoinBattle(c *gin.Context) {
	participant, err := h.battleService.Join(c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"participant": participant})
}

// ReadyBattle 준비 완료 표시
func (h *BattleHandler) ReadyBattle(c *gin.Context) {
	if err := h.battleService.Ready(c.Param("id"), currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddBot 봇 참가자 추가
func (h *BattleHandler) AddBot(c *gin.Context) {
	bot, err := h.battleService.AddBot(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bot": bot})
}

// StartBattle 배틀 시작 (인증 필수)
func (h *BattleHandler) StartBattle(c *gin.Context) {
	if err := h.battleService.Start(c.Param("id"), currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type OpenBoxRequest struct {
	BoxIndex *int `json:"boxIndex" binding:"required"`
}

// OpenBox 박스 개봉. x-player-id 헤더가 개봉 주체를 식별한다
func (h *BattleHandler) OpenBox(c *gin.Context) {
	var req OpenBoxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playerID := c.GetHeader("x-player-id")
	if playerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "x-player-id header required"})
		return
	}

	loot, err := h.battleService.OpenBox(c.Param("id"), playerID, *req.BoxIndex)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loot": loot})
}

// EndBattle 배틀 종료 및 승자 결정
func (h *BattleHandler) EndBattle(c *gin.Context) {
	winners, err := h.battleService.End(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"winners": winners,
	})
}

// BattleLoot 배틀의 루트 이력 조회
func (h *BattleHandler) BattleLoot(c *gin.Context) {
	loot, err := h.battleService.LootHistory(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loot": loot})
}
