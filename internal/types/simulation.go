package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SimulationStatus string

const (
	SimulationStatusActive   SimulationStatus = "active"
	SimulationStatusInactive SimulationStatus = "inactive"
)

// Simulation pairs one user with a persona and a frozen copy of the chosen
// scenario. The copy means later catalog edits cannot alter a running
// simulation.
type Simulation struct {
	ID              uuid.UUID                    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID                    `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	PersonaID       uuid.UUID                    `gorm:"type:uuid;not null;column:persona_id" json:"persona_id"`
	ScenarioContext datatypes.JSONType[Scenario] `gorm:"not null;column:scenario_context" json:"scenario_context"`
	Status          SimulationStatus             `gorm:"not null;column:status" json:"status"`
	CreatedAt       time.Time                    `gorm:"not null" json:"created_at"`
}

func (Simulation) TableName() string {
	return "simulations"
}
