package services

import (
	"errors"
	"testing"

	"github.com/callsim/callsim-backend/internal/types"
)

func TestStartFreezesScenarioAndGreets(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.createUser(t, "taylor")
	persona := env.createPersona(t, "Margaret", supportScenario(101))

	res, err := env.simulations.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if res.Simulation.Status != types.SimulationStatusActive {
		t.Errorf("status = %q, want %q", res.Simulation.Status, types.SimulationStatusActive)
	}
	if res.Simulation.PersonaID != persona.ID {
		t.Errorf("persona id = %s, want %s", res.Simulation.PersonaID, persona.ID)
	}
	if got := res.Simulation.ScenarioContext.Data().CallID; got != 101 {
		t.Errorf("frozen callId = %d, want 101", got)
	}
	if len(res.Messages) != 1 {
		t.Fatalf("got %d initial messages, want 1", len(res.Messages))
	}
	greeting := res.Messages[0]
	if greeting.Sender != types.MessageSenderPersona {
		t.Errorf("greeting sender = %q, want persona", greeting.Sender)
	}
	if greeting.Content != "Hi taylor, my internet keeps dropping." {
		t.Errorf("greeting = %q, template not rendered", greeting.Content)
	}
}

func TestStartRejectsSecondActive(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.createUser(t, "taylor")
	env.createPersona(t, "Margaret", supportScenario(101))

	if _, err := env.simulations.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if _, err := env.simulations.Start(ctx); !errors.Is(err, ErrSimulationAlreadyActive) {
		t.Fatalf("second Start err = %v, want ErrSimulationAlreadyActive", err)
	}
}

func TestStartWithoutPersonas(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.createUser(t, "taylor")

	if _, err := env.simulations.Start(ctx); !errors.Is(err, ErrNoPersonasAvailable) {
		t.Fatalf("Start err = %v, want ErrNoPersonasAvailable", err)
	}
}

func TestSendMessageMatchesRules(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.createUser(t, "taylor")
	env.createPersona(t, "Margaret", supportScenario(101))

	started, err := env.simulations.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	simID := started.Simulation.ID

	matched, err := env.simulations.SendMessage(ctx, simID, "Could you restart your router?")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if matched.PersonaMessage.Content != "Okay, restarting the router now." {
		t.Errorf("matched reply = %q", matched.PersonaMessage.Content)
	}

	defaulted, err := env.simulations.SendMessage(ctx, simID, "please hold")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if defaulted.PersonaMessage.Content != "That did not help at all." {
		t.Errorf("default reply = %q", defaulted.PersonaMessage.Content)
	}

	transcript, err := env.simulations.GetMessages(ctx, simID)
	if err != nil {
		t.Fatalf("GetMessages: %v", err)
	}
	wantSenders := []types.MessageSender{
		types.MessageSenderPersona,
		types.MessageSenderUser,
		types.MessageSenderPersona,
		types.MessageSenderUser,
		types.MessageSenderPersona,
	}
	if len(transcript) != len(wantSenders) {
		t.Fatalf("transcript has %d messages, want %d", len(transcript), len(wantSenders))
	}
	for i, m := range transcript {
		if m.Sender != wantSenders[i] {
			t.Errorf("message %d sender = %q, want %q", i, m.Sender, wantSenders[i])
		}
	}
}

func TestSimulationHiddenFromOtherUsers(t *testing.T) {
	env := newTestEnv(t)
	ownerCtx, _ := env.createUser(t, "owner")
	otherCtx, _ := env.createUser(t, "other")
	env.createPersona(t, "Margaret", supportScenario(101))

	started, err := env.simulations.Start(ownerCtx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	simID := started.Simulation.ID

	if _, err := env.simulations.GetMessages(otherCtx, simID); !errors.Is(err, ErrSimulationNotFound) {
		t.Errorf("GetMessages err = %v, want ErrSimulationNotFound", err)
	}
	if _, err := env.simulations.SendMessage(otherCtx, simID, "hello"); !errors.Is(err, ErrSimulationNotFound) {
		t.Errorf("SendMessage err = %v, want ErrSimulationNotFound", err)
	}
	if _, err := env.simulations.End(otherCtx, simID); !errors.Is(err, ErrSimulationNotFound) {
		t.Errorf("End err = %v, want ErrSimulationNotFound", err)
	}
}

func TestEndScoresAndDeactivates(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.createUser(t, "taylor")
	env.createPersona(t, "Margaret", supportScenario(101))

	started, err := env.simulations.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	simID := started.Simulation.ID

	if _, err := env.simulations.SendMessage(ctx, simID, "let me restart that for you"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if _, err := env.simulations.SendMessage(ctx, simID, "uhh"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	res, err := env.simulations.End(ctx, simID)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	// Two rules, one triggered, one default: round(1*50 - 1*5) = 45.
	if res.Assessment.Score != 45 {
		t.Errorf("score = %d, want 45", res.Assessment.Score)
	}
	want := "You triggered 1 response rules, but the persona responded with the default 1 times."
	if res.Assessment.CriteriaFeedback != want {
		t.Errorf("feedback = %q, want %q", res.Assessment.CriteriaFeedback, want)
	}

	active, err := env.simulations.GetActive(ctx)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if active != nil {
		t.Errorf("simulation still active after End")
	}
}

func TestEndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.createUser(t, "taylor")
	env.createPersona(t, "Margaret", supportScenario(101))

	started, err := env.simulations.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	simID := started.Simulation.ID

	first, err := env.simulations.End(ctx, simID)
	if err != nil {
		t.Fatalf("first End: %v", err)
	}
	second, err := env.simulations.End(ctx, simID)
	if err != nil {
		t.Fatalf("second End: %v", err)
	}
	if first.Assessment.ID != second.Assessment.ID {
		t.Errorf("second End produced a different assessment: %s vs %s", first.Assessment.ID, second.Assessment.ID)
	}
	if len(second.NewAchievements) != 0 {
		t.Errorf("second End unlocked %d achievements, want 0", len(second.NewAchievements))
	}

	var count int64
	if err := env.db.Model(&types.Assessment{}).Where("simulation_id = ?", simID).Count(&count).Error; err != nil {
		t.Fatalf("count assessments: %v", err)
	}
	if count != 1 {
		t.Errorf("assessment rows = %d, want 1", count)
	}
}

func TestEndUnlocksFirstSimulationBadge(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.createUser(t, "taylor")
	env.createPersona(t, "Margaret", supportScenario(101))

	started, err := env.simulations.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	res, err := env.simulations.End(ctx, started.Simulation.ID)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	found := false
	for _, a := range res.NewAchievements {
		if a.BadgeType == types.BadgeSimulationFirst {
			found = true
		}
	}
	if !found {
		t.Errorf("first completed simulation did not unlock %s", types.BadgeSimulationFirst)
	}
}
