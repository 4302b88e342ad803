package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/callsim/callsim-backend/internal/types"
)

const defaultReplyPenalty = 5

// Result is the outcome of scoring one finished transcript.
type Result struct {
	Score            int
	CriteriaFeedback string
	TimeToResolve    time.Duration
	TriggeredCount   int
	DefaultCount     int
}

// Assess recomputes rule statistics over the transcript of a finished
// simulation and derives score, feedback, and time to resolve. It is a pure
// function of its inputs, which is what makes endSimulation idempotent.
func Assess(scenario *types.Scenario, simulationCreatedAt time.Time, transcript []*types.Message) Result {
	ordered := make([]*types.Message, len(transcript))
	copy(ordered, transcript)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	rules := scenario.Responses.Rules

	triggered := 0
	defaulted := 0
	for _, msg := range ordered {
		if msg.Sender != types.MessageSenderUser {
			continue
		}
		if _, ok := Match(rules, msg.Content); ok {
			triggered++
		} else {
			defaulted++
		}
	}

	return Result{
		Score:            score(len(rules), triggered, defaulted),
		CriteriaFeedback: criteriaFeedback(triggered, defaulted),
		TimeToResolve:    timeToResolve(simulationCreatedAt, ordered),
		TriggeredCount:   triggered,
		DefaultCount:     defaulted,
	}
}

func score(ruleCount, triggered, defaulted int) int {
	ruleValue := 0.0
	if ruleCount > 0 {
		ruleValue = 100 / float64(ruleCount)
	}
	s := int(math.Round(float64(triggered)*ruleValue - float64(defaulted)*defaultReplyPenalty))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func criteriaFeedback(triggered, defaulted int) string {
	if triggered == 0 && defaulted == 0 {
		return "No user messages were sent during the simulation."
	}
	if defaulted == 0 {
		return fmt.Sprintf("Great job! You triggered %d response rules without any default responses.", triggered)
	}
	if triggered == 0 {
		return fmt.Sprintf("You did not trigger any response rules, and the persona responded with the default %d times.", defaulted)
	}
	return fmt.Sprintf("You triggered %d response rules, but the persona responded with the default %d times.", triggered, defaulted)
}

// timeToResolve measures from the first user message (or the simulation's
// creation when the user never spoke) to the last message overall, floored
// at zero.
func timeToResolve(simulationCreatedAt time.Time, ordered []*types.Message) time.Duration {
	if len(ordered) == 0 {
		return 0
	}

	start := simulationCreatedAt
	for _, msg := range ordered {
		if msg.Sender == types.MessageSenderUser {
			start = msg.CreatedAt
			break
		}
	}
	end := ordered[len(ordered)-1].CreatedAt

	seconds := math.Round(end.Sub(start).Seconds())
	if seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
