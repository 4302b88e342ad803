package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/callsim/callsim-backend/internal/services"
	"github.com/callsim/callsim-backend/internal/types"
)

type AchievementHandler struct {
	achievementService services.AchievementService
}

func NewAchievementHandler(achievementService services.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievementService: achievementService}
}

func (ah *AchievementHandler) GetMine(c *gin.Context) {
	achievements, err := ah.achievementService.GetMine(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	type badge struct {
		*types.Achievement
		Description string `json:"description"`
	}
	out := make([]badge, 0, len(achievements))
	for _, a := range achievements {
		out = append(out, badge{Achievement: a, Description: types.AchievementBadgeDescriptions[a.BadgeType]})
	}
	c.JSON(http.StatusOK, gin.H{"achievements": out})
}
