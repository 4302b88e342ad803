package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/callsim/callsim-backend/internal/types"
)

// completeSimulation persists a finished simulation with an assessment so
// achievement evaluation sees it as completed.
func (env *testEnv) completeSimulation(t *testing.T, userID uuid.UUID, persona *types.Persona, scenario types.Scenario, score int16) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	simulation := &types.Simulation{
		ID:              uuid.New(),
		UserID:          userID,
		PersonaID:       persona.ID,
		ScenarioContext: datatypes.NewJSONType(scenario),
		Status:          types.SimulationStatusInactive,
	}
	if _, err := env.simulationRepo.Create(ctx, nil, []*types.Simulation{simulation}); err != nil {
		t.Fatalf("create simulation: %v", err)
	}
	assessment := &types.Assessment{
		ID:               uuid.New(),
		SimulationID:     simulation.ID,
		Score:            score,
		CriteriaFeedback: "test",
	}
	if _, err := env.assessmentRepo.Create(ctx, nil, assessment); err != nil {
		t.Fatalf("create assessment: %v", err)
	}
	return simulation.ID
}

func badgeSet(achievements []*types.Achievement) map[types.AchievementBadge]bool {
	set := make(map[types.AchievementBadge]bool, len(achievements))
	for _, a := range achievements {
		set[a.BadgeType] = true
	}
	return set
}

func TestEvaluateBadgeProgression(t *testing.T) {
	env := newTestEnv(t)
	_, user := env.createUser(t, "taylor")
	personaA := env.createPersona(t, "Margaret", supportScenario(101), supportScenario(102))
	personaB := env.createPersona(t, "Frank", supportScenario(201))
	ctx := context.Background()

	// First completed simulation: only the first-simulation badge.
	simID := env.completeSimulation(t, user.ID, personaA, personaA.Scenarios[0], 80)
	unlocked, err := env.achievements.Evaluate(ctx, nil, user.ID, simID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	got := badgeSet(unlocked)
	if len(got) != 1 || !got[types.BadgeSimulationFirst] {
		t.Fatalf("after first completion unlocked %v, want only %s", got, types.BadgeSimulationFirst)
	}

	// Second scenario of the same persona: that persona is fully covered.
	simID = env.completeSimulation(t, user.ID, personaA, personaA.Scenarios[1], 70)
	unlocked, err = env.achievements.Evaluate(ctx, nil, user.ID, simID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	got = badgeSet(unlocked)
	if len(got) != 1 || !got[types.BadgeSimulationAllScenariosForPersona] {
		t.Fatalf("after covering persona unlocked %v, want only %s", got, types.BadgeSimulationAllScenariosForPersona)
	}

	// Remaining persona's only scenario: everything else unlocks.
	simID = env.completeSimulation(t, user.ID, personaB, personaB.Scenarios[0], 60)
	unlocked, err = env.achievements.Evaluate(ctx, nil, user.ID, simID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	got = badgeSet(unlocked)
	if len(got) != 2 || !got[types.BadgeSimulationAllPersonas] || !got[types.BadgeSimulationAllScenarios] {
		t.Fatalf("after full coverage unlocked %v, want %s and %s",
			got, types.BadgeSimulationAllPersonas, types.BadgeSimulationAllScenarios)
	}
}

func TestEvaluatePerfectScore(t *testing.T) {
	env := newTestEnv(t)
	_, user := env.createUser(t, "taylor")
	persona := env.createPersona(t, "Margaret", supportScenario(101), supportScenario(102))
	ctx := context.Background()

	simID := env.completeSimulation(t, user.ID, persona, persona.Scenarios[0], 100)
	unlocked, err := env.achievements.Evaluate(ctx, nil, user.ID, simID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got := badgeSet(unlocked); !got[types.BadgeSimulationPerfectScore] {
		t.Errorf("perfect score did not unlock %s, got %v", types.BadgeSimulationPerfectScore, got)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	_, user := env.createUser(t, "taylor")
	persona := env.createPersona(t, "Margaret", supportScenario(101))
	ctx := context.Background()

	simID := env.completeSimulation(t, user.ID, persona, persona.Scenarios[0], 100)
	first, err := env.achievements.Evaluate(ctx, nil, user.ID, simID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(first) == 0 {
		t.Fatalf("first Evaluate unlocked nothing")
	}

	again, err := env.achievements.Evaluate(ctx, nil, user.ID, simID)
	if err != nil {
		t.Fatalf("second Evaluate: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second Evaluate unlocked %d badges, want 0", len(again))
	}

	held, err := env.achievementRepo.GetByUserID(ctx, nil, user.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(held) != len(first) {
		t.Errorf("held %d badges, want %d", len(held), len(first))
	}
}

func TestEvaluateIgnoresUnfinishedSimulations(t *testing.T) {
	env := newTestEnv(t)
	_, user := env.createUser(t, "taylor")
	persona := env.createPersona(t, "Margaret", supportScenario(101))
	ctx := context.Background()

	// Active simulation without an assessment does not count as completed.
	simulation := &types.Simulation{
		ID:              uuid.New(),
		UserID:          user.ID,
		PersonaID:       persona.ID,
		ScenarioContext: datatypes.NewJSONType(persona.Scenarios[0]),
		Status:          types.SimulationStatusActive,
	}
	if _, err := env.simulationRepo.Create(ctx, nil, []*types.Simulation{simulation}); err != nil {
		t.Fatalf("create simulation: %v", err)
	}

	unlocked, err := env.achievements.Evaluate(ctx, nil, user.ID, simulation.ID)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(unlocked) != 0 {
		t.Errorf("unfinished simulation unlocked %d badges, want 0", len(unlocked))
	}
}
