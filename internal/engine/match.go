package engine

import (
	"strings"

	"github.com/callsim/callsim-backend/internal/types"
)

// Match scans rules in declared order and returns the first rule with any
// trigger contained in the utterance. Matching is case-insensitive substring
// containment; declaration order breaks ties, not specificity.
func Match(rules []types.Rule, utterance string) (*types.Rule, bool) {
	content := strings.ToLower(utterance)
	for i := range rules {
		for _, trigger := range rules[i].Triggers {
			if trigger == "" {
				continue
			}
			if strings.Contains(content, strings.ToLower(trigger)) {
				return &rules[i], true
			}
		}
	}
	return nil, false
}

// Reply returns the response of the first matching rule, falling back to the
// scenario's default reply when nothing matches.
func Reply(scenario *types.Scenario, utterance string) string {
	if rule, ok := Match(scenario.Responses.Rules, utterance); ok {
		return rule.Response
	}
	return scenario.Responses.Default
}

// RenderTemplate substitutes every {username} placeholder. Both the initial
// greeting and in-conversation replies receive the real username; the legacy
// behavior of blanking the name mid-conversation was dropped on purpose.
func RenderTemplate(s, username string) string {
	return strings.ReplaceAll(s, "{username}", username)
}
