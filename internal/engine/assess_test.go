package engine

import (
	"testing"
	"time"

	"github.com/callsim/callsim-backend/internal/types"
)

func twoRuleScenario() *types.Scenario {
	return &types.Scenario{
		Responses: types.Responses{
			Default: "default reply",
			Rules: []types.Rule{
				{Triggers: []string{"refund"}, Response: "R1"},
				{Triggers: []string{"card"}, Response: "R2"},
			},
		},
	}
}

func msg(id int64, sender types.MessageSender, content string, at time.Time) *types.Message {
	return &types.Message{ID: id, Sender: sender, Content: content, CreatedAt: at}
}

func TestAssessScoreAndFeedback(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name         string
		transcript   []*types.Message
		wantScore    int
		wantFeedback string
	}{
		{
			name: "two_triggered_one_default_scores_95",
			transcript: []*types.Message{
				msg(1, types.MessageSenderPersona, "Hi!", base),
				msg(2, types.MessageSenderUser, "I want a refund", base.Add(5*time.Second)),
				msg(3, types.MessageSenderPersona, "R1", base.Add(6*time.Second)),
				msg(4, types.MessageSenderUser, "it was on my card", base.Add(10*time.Second)),
				msg(5, types.MessageSenderPersona, "R2", base.Add(11*time.Second)),
				msg(6, types.MessageSenderUser, "what time is it", base.Add(15*time.Second)),
				msg(7, types.MessageSenderPersona, "default reply", base.Add(16*time.Second)),
			},
			wantScore:    95,
			wantFeedback: "You triggered 2 response rules, but the persona responded with the default 1 times.",
		},
		{
			name:         "zero_user_messages",
			transcript:   []*types.Message{msg(1, types.MessageSenderPersona, "Hi!", base)},
			wantScore:    0,
			wantFeedback: "No user messages were sent during the simulation.",
		},
		{
			name: "all_triggered_no_defaults",
			transcript: []*types.Message{
				msg(1, types.MessageSenderUser, "refund", base),
				msg(2, types.MessageSenderUser, "card", base.Add(time.Second)),
			},
			wantScore:    100,
			wantFeedback: "Great job! You triggered 2 response rules without any default responses.",
		},
		{
			name: "only_defaults",
			transcript: []*types.Message{
				msg(1, types.MessageSenderUser, "no idea", base),
				msg(2, types.MessageSenderUser, "still no idea", base.Add(time.Second)),
			},
			wantScore:    0,
			wantFeedback: "You did not trigger any response rules, and the persona responded with the default 2 times.",
		},
		{
			name: "score_clamped_at_100",
			transcript: []*types.Message{
				msg(1, types.MessageSenderUser, "refund", base),
				msg(2, types.MessageSenderUser, "refund again", base.Add(time.Second)),
				msg(3, types.MessageSenderUser, "card", base.Add(2*time.Second)),
			},
			wantScore:    100,
			wantFeedback: "Great job! You triggered 3 response rules without any default responses.",
		},
	}

	sc := twoRuleScenario()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Assess(sc, base, tc.transcript)
			if got.Score != tc.wantScore {
				t.Fatalf("score=%d, want %d", got.Score, tc.wantScore)
			}
			if got.CriteriaFeedback != tc.wantFeedback {
				t.Fatalf("feedback=%q, want %q", got.CriteriaFeedback, tc.wantFeedback)
			}
		})
	}
}

func TestAssessZeroRuleScenario(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sc := &types.Scenario{Responses: types.Responses{Default: "D"}}
	transcript := []*types.Message{
		msg(1, types.MessageSenderUser, "hello", base),
		msg(2, types.MessageSenderUser, "anyone there", base.Add(time.Second)),
	}

	got := Assess(sc, base, transcript)
	if got.Score != 0 {
		t.Fatalf("zero-rule scenario score=%d, want 0 (penalty floor)", got.Score)
	}
	if got.DefaultCount != 2 || got.TriggeredCount != 0 {
		t.Fatalf("counts triggered=%d default=%d, want 0/2", got.TriggeredCount, got.DefaultCount)
	}
}

func TestAssessScoreBounds(t *testing.T) {
	// Every (triggered, defaulted) combination within a short transcript must
	// land inside [0, 100].
	sc := twoRuleScenario()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for triggered := 0; triggered <= 10; triggered++ {
		for defaulted := 0; defaulted <= 10; defaulted++ {
			var transcript []*types.Message
			id := int64(1)
			for i := 0; i < triggered; i++ {
				transcript = append(transcript, msg(id, types.MessageSenderUser, "refund", base.Add(time.Duration(id)*time.Second)))
				id++
			}
			for i := 0; i < defaulted; i++ {
				transcript = append(transcript, msg(id, types.MessageSenderUser, "nothing relevant", base.Add(time.Duration(id)*time.Second)))
				id++
			}
			got := Assess(sc, base, transcript)
			if got.Score < 0 || got.Score > 100 {
				t.Fatalf("score %d out of bounds for triggered=%d defaulted=%d", got.Score, triggered, defaulted)
			}
		}
	}
}

func TestAssessTimeToResolve(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sc := twoRuleScenario()

	cases := []struct {
		name       string
		createdAt  time.Time
		transcript []*types.Message
		want       time.Duration
	}{
		{
			name:      "first_user_message_to_last_message",
			createdAt: base,
			transcript: []*types.Message{
				msg(1, types.MessageSenderPersona, "Hi!", base),
				msg(2, types.MessageSenderUser, "refund", base.Add(30*time.Second)),
				msg(3, types.MessageSenderPersona, "R1", base.Add(90*time.Second)),
			},
			want: 60 * time.Second,
		},
		{
			name:      "no_user_message_uses_simulation_creation",
			createdAt: base,
			transcript: []*types.Message{
				msg(1, types.MessageSenderPersona, "Hi!", base.Add(45*time.Second)),
			},
			want: 45 * time.Second,
		},
		{
			name:       "empty_transcript",
			createdAt:  base,
			transcript: nil,
			want:       0,
		},
		{
			name:      "clock_skew_floors_at_zero",
			createdAt: base,
			transcript: []*types.Message{
				msg(1, types.MessageSenderUser, "refund", base.Add(10*time.Second)),
				msg(2, types.MessageSenderPersona, "R1", base.Add(3*time.Second)),
			},
			want: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Assess(sc, tc.createdAt, tc.transcript)
			if got.TimeToResolve != tc.want {
				t.Fatalf("timeToResolve=%v, want %v", got.TimeToResolve, tc.want)
			}
		})
	}
}

func TestAssessOrdersByTimestampThenID(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sc := twoRuleScenario()

	// Shuffled input; the last message by (timestamp, id) is the persona reply
	// with id 4.
	transcript := []*types.Message{
		msg(4, types.MessageSenderPersona, "R1", base.Add(20*time.Second)),
		msg(3, types.MessageSenderUser, "refund", base.Add(20*time.Second)),
		msg(1, types.MessageSenderPersona, "Hi!", base),
		msg(2, types.MessageSenderUser, "card", base.Add(10*time.Second)),
	}

	got := Assess(sc, base, transcript)
	if got.TriggeredCount != 2 {
		t.Fatalf("triggered=%d, want 2", got.TriggeredCount)
	}
	// First user message at +10s, last message at +20s.
	if got.TimeToResolve != 10*time.Second {
		t.Fatalf("timeToResolve=%v, want 10s", got.TimeToResolve)
	}
}

func TestAssessDeterministic(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sc := twoRuleScenario()
	transcript := []*types.Message{
		msg(1, types.MessageSenderUser, "refund", base),
		msg(2, types.MessageSenderUser, "hmm", base.Add(time.Second)),
	}

	first := Assess(sc, base, transcript)
	for i := 0; i < 5; i++ {
		if got := Assess(sc, base, transcript); got != first {
			t.Fatalf("Assess is not deterministic: %+v vs %+v", got, first)
		}
	}
}
