package policy

import (
	"fmt"
	"path/filepath"
	"strings"
)

// EvaluationResult captures the full context of a policy evaluation,
// including which rule matched and why.
type EvaluationResult struct {
	Decision    Decision `json:"decision"`
	RuleSet     string   `json:"rule_set"`
	RuleIndex   int      `json:"rule_index"` // -1 if no rule matched
	MatchedRule string   `json:"matched_rule,omitempty"`
	Reason      string   `json:"reason"`
}

// Evaluate checks a tool name and matcher key against the rules using
// first-match-wins. No match defaults to "ask": the safe default is
// always to ask, never to silently allow. Evaluation is pure; the same
// (toolName, matcherKey) pair always yields the same decision for a
// fixed rule set.
func (rs *RuleSet) Evaluate(toolName, matcherKey string) EvaluationResult {
	for i := range rs.Rules {
		rule := &rs.Rules[i]
		if !matchGlob(rule.ToolPattern, toolName) {
			continue
		}
		if rule.ArgsPattern != "" && !matchKey(rule.ArgsPattern, matcherKey) {
			continue
		}
		reason := rule.Reason
		if reason == "" {
			reason = fmt.Sprintf("matched rule[%d]: tool=%q", i, rule.ToolPattern)
		}
		return EvaluationResult{
			Decision:    rule.Decision,
			RuleSet:     rs.Name,
			RuleIndex:   i,
			MatchedRule: fmt.Sprintf("%s → %s", rule.ToolPattern, rule.Decision),
			Reason:      reason,
		}
	}
	return EvaluationResult{
		Decision:  DecisionAsk,
		RuleSet:   rs.Name,
		RuleIndex: -1,
		Reason:    "no matching rule; asking by default",
	}
}

// matchGlob checks whether a glob pattern matches a name.
// Supports filepath.Match wildcards:
//   - "*" matches everything
//   - "mcp:*" matches "mcp:filesystem:read_file"
//   - "Read" matches exactly
func matchGlob(pattern, name string) bool {
	if pattern == name {
		return true
	}
	matched, err := filepath.Match(pattern, name)
	return err == nil && matched
}

// matchKey matches a pattern against a serialized matcher key. Unlike
// filepath.Match, "*" here crosses every character including path
// separators, since matcher keys routinely embed file paths.
func matchKey(pattern, key string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == key
	}
	if !strings.HasPrefix(key, parts[0]) {
		return false
	}
	key = key[len(parts[0]):]
	for _, part := range parts[1 : len(parts)-1] {
		idx := strings.Index(key, part)
		if idx < 0 {
			return false
		}
		key = key[idx+len(part):]
	}
	return strings.HasSuffix(key, parts[len(parts)-1])
}
