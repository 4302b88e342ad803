package db

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/callsim/callsim-backend/internal/logger"
	"github.com/callsim/callsim-backend/internal/repos"
	"github.com/callsim/callsim-backend/internal/types"
)

//go:embed seed/personas.yaml
var personasSeedYAML []byte

type personaSeed struct {
	Name                   string           `yaml:"name"`
	Role                   string           `yaml:"role"`
	Tone                   string           `yaml:"tone"`
	OceanOpenness          int16            `yaml:"ocean_openness"`
	OceanConscientiousness int16            `yaml:"ocean_conscientiousness"`
	OceanExtraversion      int16            `yaml:"ocean_extraversion"`
	OceanAgreeableness     int16            `yaml:"ocean_agreeableness"`
	OceanNeuroticism       int16            `yaml:"ocean_neuroticism"`
	Scenarios              []types.Scenario `yaml:"scenarios"`
}

type catalogSeed struct {
	Personas []personaSeed `yaml:"personas"`
}

// SeedPersonas loads the embedded persona catalog into the store. It is a
// no-op when personas already exist, so restarts do not duplicate the
// catalog or disturb simulations frozen against it.
func SeedPersonas(ctx context.Context, log *logger.Logger, personaRepo repos.PersonaRepo) error {
	seedLog := log.With("component", "PersonaSeeder")

	count, err := personaRepo.Count(ctx, nil)
	if err != nil {
		return fmt.Errorf("Failed to count personas: %w", err)
	}
	if count > 0 {
		seedLog.Debug("Personas already seeded, skipping", "count", count)
		return nil
	}

	var catalog catalogSeed
	if err := yaml.Unmarshal(personasSeedYAML, &catalog); err != nil {
		return fmt.Errorf("Failed to parse persona seed file: %w", err)
	}
	if len(catalog.Personas) == 0 {
		return fmt.Errorf("Persona seed file contains no personas")
	}

	personas := make([]*types.Persona, 0, len(catalog.Personas))
	for _, seed := range catalog.Personas {
		if err := validatePersonaSeed(seed); err != nil {
			return fmt.Errorf("Invalid persona %q in seed file: %w", seed.Name, err)
		}
		personas = append(personas, &types.Persona{
			ID:                     uuid.New(),
			Name:                   seed.Name,
			Role:                   seed.Role,
			Tone:                   seed.Tone,
			OceanOpenness:          seed.OceanOpenness,
			OceanConscientiousness: seed.OceanConscientiousness,
			OceanExtraversion:      seed.OceanExtraversion,
			OceanAgreeableness:     seed.OceanAgreeableness,
			OceanNeuroticism:       seed.OceanNeuroticism,
			Scenarios:              seed.Scenarios,
		})
	}

	if _, err := personaRepo.Create(ctx, nil, personas); err != nil {
		return fmt.Errorf("Failed to insert persona seed: %w", err)
	}
	seedLog.Info("Seeded persona catalog", "personas", len(personas))
	return nil
}

// Trait ranges are also CHECK-constrained in postgres; validating here keeps
// the sqlite test store honest too.
func validatePersonaSeed(seed personaSeed) error {
	traits := map[string]int16{
		"ocean_openness":          seed.OceanOpenness,
		"ocean_conscientiousness": seed.OceanConscientiousness,
		"ocean_extraversion":      seed.OceanExtraversion,
		"ocean_agreeableness":     seed.OceanAgreeableness,
		"ocean_neuroticism":       seed.OceanNeuroticism,
	}
	for name, v := range traits {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s out of range: %d", name, v)
		}
	}
	if len(seed.Scenarios) == 0 {
		return fmt.Errorf("persona has no scenarios")
	}
	return nil
}
