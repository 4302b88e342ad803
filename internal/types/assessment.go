package types

import (
	"time"

	"github.com/google/uuid"
)

// Assessment is created exactly once per simulation and never mutated.
type Assessment struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SimulationID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:simulation_id" json:"simulation_id"`
	Score            int16     `gorm:"not null;column:score;check:score_range,score >= 0 AND score <= 100" json:"score"`
	TimeToResolve    int64     `gorm:"not null;column:time_to_resolve" json:"time_to_resolve"`
	CriteriaFeedback string    `gorm:"not null;column:criteria_feedback" json:"criteria_feedback"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
}

func (Assessment) TableName() string {
	return "assessments"
}
