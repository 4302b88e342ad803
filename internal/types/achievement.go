package types

import (
	"time"

	"github.com/google/uuid"
)

type AchievementBadge string

const (
	BadgeSimulationFirst                  AchievementBadge = "SIMULATION_FIRST"
	BadgeSimulationAllPersonas            AchievementBadge = "SIMULATION_ALL_PERSONAS"
	BadgeSimulationAllScenariosForPersona AchievementBadge = "SIMULATION_ALL_SCENARIOS_FOR_PERSONA"
	BadgeSimulationAllScenarios           AchievementBadge = "SIMULATION_ALL_SCENARIOS"
	BadgeSimulationPerfectScore           AchievementBadge = "SIMULATION_PERFECT_SCORE"
)

var AchievementBadgeList = []AchievementBadge{
	BadgeSimulationFirst,
	BadgeSimulationAllPersonas,
	BadgeSimulationAllScenariosForPersona,
	BadgeSimulationAllScenarios,
	BadgeSimulationPerfectScore,
}

var AchievementBadgeDescriptions = map[AchievementBadge]string{
	BadgeSimulationFirst:                  "Completed your first simulation",
	BadgeSimulationAllPersonas:            "Completed at least one simulation with each persona",
	BadgeSimulationAllScenariosForPersona: "Completed every scenario of one persona",
	BadgeSimulationAllScenarios:           "Completed every scenario of every persona",
	BadgeSimulationPerfectScore:           "Achieved a perfect score of 100",
}

// Achievement records one earned badge. A (user_id, badge_type) pair is
// unique, so a badge can be earned at most once.
type Achievement struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_achievements_user_badge;column:user_id" json:"user_id"`
	SimulationID uuid.UUID        `gorm:"type:uuid;not null;column:simulation_id" json:"simulation_id"`
	BadgeType    AchievementBadge `gorm:"not null;uniqueIndex:idx_achievements_user_badge;column:badge_type" json:"badge_type"`
	CreatedAt    time.Time        `gorm:"not null" json:"created_at"`
}

func (Achievement) TableName() string {
	return "achievements"
}
