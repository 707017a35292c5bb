package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Haiikyu/reveelbox-sub005/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetCurrentUser 내 프로필 + 코인 잔액 조회
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.userService.GetByID(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userJSON(user)})
}
