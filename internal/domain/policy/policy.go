// Package policy defines the rule model and engine deciding what happens
// to a tool invocation: run automatically, be denied, or be gated behind
// human confirmation.
package policy

// Decision is the verdict for a tool+args pair.
type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionDeny  Decision = "deny"
	DecisionAsk   Decision = "ask"
)

// Rule is an ordered matcher. ToolPattern matches the tool name and
// ArgsPattern matches the deterministic matcher key of the arguments;
// both support glob wildcards, and an empty ArgsPattern matches any
// arguments.
type Rule struct {
	ToolPattern string   `json:"tool_pattern" yaml:"tool_pattern"`
	ArgsPattern string   `json:"args_pattern,omitempty" yaml:"args_pattern,omitempty"`
	Decision    Decision `json:"decision" yaml:"decision"`
	Reason      string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// RuleSet is a named, ordered collection of rules evaluated
// first-match-wins. Rule sets are read-only during evaluation; mutation
// happens strictly between batches and bumps Generation so cached
// decisions from earlier generations are never reused.
type RuleSet struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Rules       []Rule `json:"rules" yaml:"rules"`
	Generation  uint64 `json:"-" yaml:"-"`
}
