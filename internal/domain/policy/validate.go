package policy

import (
	"fmt"

	"github.com/Strob0t/Overseer/internal/domain"
)

// validDecisions enumerates all valid decisions.
var validDecisions = map[Decision]bool{
	DecisionAllow: true,
	DecisionDeny:  true,
	DecisionAsk:   true,
}

// Validate checks that a RuleSet is well-formed.
func (rs *RuleSet) Validate() error {
	if rs.Name == "" {
		return fmt.Errorf("rule set name is required: %w", domain.ErrValidation)
	}
	for i := range rs.Rules {
		rule := &rs.Rules[i]
		if rule.ToolPattern == "" {
			return fmt.Errorf("rule[%d]: tool_pattern is required: %w", i, domain.ErrValidation)
		}
		if !validDecisions[rule.Decision] {
			return fmt.Errorf("rule[%d]: invalid decision %q: %w", i, rule.Decision, domain.ErrValidation)
		}
	}
	return nil
}
