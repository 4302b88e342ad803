package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Rule maps a set of trigger substrings to a canned persona response.
// Rule order inside a scenario is significant: the first match wins.
type Rule struct {
	Triggers []string `json:"triggers" yaml:"triggers"`
	Response string   `json:"response" yaml:"response"`
}

type Responses struct {
	Initial string `json:"initial" yaml:"initial"`
	Default string `json:"default" yaml:"default"`
	Rules   []Rule `json:"rules" yaml:"rules"`
}

// Scenario is a value type embedded in a persona's catalog and frozen into a
// simulation at creation time. It is never referenced by id across tables.
type Scenario struct {
	CallID    int       `json:"callId" yaml:"callId"`
	Service   string    `json:"service" yaml:"service"`
	Subject   string    `json:"subject" yaml:"subject"`
	Notes     string    `json:"notes" yaml:"notes"`
	Responses Responses `json:"responses" yaml:"responses"`
}

type Persona struct {
	ID                    uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	Name                  string                          `gorm:"not null;column:name" json:"name"`
	Role                  string                          `gorm:"not null;column:role" json:"role"`
	Tone                  string                          `gorm:"not null;column:tone" json:"tone"`
	OceanOpenness         int16                           `gorm:"not null;column:ocean_openness;check:ocean_openness_range,ocean_openness >= 0 AND ocean_openness <= 100" json:"ocean_openness"`
	OceanConscientiousness int16                          `gorm:"not null;column:ocean_conscientiousness;check:ocean_conscientiousness_range,ocean_conscientiousness >= 0 AND ocean_conscientiousness <= 100" json:"ocean_conscientiousness"`
	OceanExtraversion     int16                           `gorm:"not null;column:ocean_extraversion;check:ocean_extraversion_range,ocean_extraversion >= 0 AND ocean_extraversion <= 100" json:"ocean_extraversion"`
	OceanAgreeableness    int16                           `gorm:"not null;column:ocean_agreeableness;check:ocean_agreeableness_range,ocean_agreeableness >= 0 AND ocean_agreeableness <= 100" json:"ocean_agreeableness"`
	OceanNeuroticism      int16                           `gorm:"not null;column:ocean_neuroticism;check:ocean_neuroticism_range,ocean_neuroticism >= 0 AND ocean_neuroticism <= 100" json:"ocean_neuroticism"`
	Scenarios             datatypes.JSONSlice[Scenario]   `gorm:"not null;column:scenarios" json:"scenarios"`
	CreatedAt             time.Time                       `gorm:"not null" json:"created_at"`
}

func (Persona) TableName() string {
	return "personas"
}
