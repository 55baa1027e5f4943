package policy

import (
	"testing"

	"github.com/Strob0t/Overseer/internal/matcher"
)

func TestFirstMatchWins(t *testing.T) {
	rs := RuleSet{
		Name: "test",
		Rules: []Rule{
			{ToolPattern: "Bash", ArgsPattern: `*"command":"git status*`, Decision: DecisionAllow},
			{ToolPattern: "Bash", Decision: DecisionDeny},
		},
	}

	key := matcher.Serialize(map[string]any{"command": "git status --short"})
	res := rs.Evaluate("Bash", key)
	if res.Decision != DecisionAllow {
		t.Fatalf("decision = %s, want allow (reason %s)", res.Decision, res.Reason)
	}
	if res.RuleIndex != 0 {
		t.Fatalf("rule index = %d, want 0", res.RuleIndex)
	}

	key = matcher.Serialize(map[string]any{"command": "rm -rf /"})
	res = rs.Evaluate("Bash", key)
	if res.Decision != DecisionDeny {
		t.Fatalf("decision = %s, want deny", res.Decision)
	}
	if res.RuleIndex != 1 {
		t.Fatalf("rule index = %d, want 1", res.RuleIndex)
	}
}

func TestNoMatchDefaultsToAsk(t *testing.T) {
	rs := RuleSet{Name: "empty"}
	res := rs.Evaluate("AnythingAtAll", `{"x":1}`)
	if res.Decision != DecisionAsk {
		t.Fatalf("decision = %s, want ask", res.Decision)
	}
	if res.RuleIndex != -1 {
		t.Fatalf("rule index = %d, want -1", res.RuleIndex)
	}
}

func TestEvaluationIsDeterministic(t *testing.T) {
	rs := PresetSafeAutonomy()
	argsA := map[string]any{"command": "go test ./...", "timeout": 30}
	argsB := map[string]any{"timeout": 30, "command": "go test ./..."}

	resA := rs.Evaluate("shell", matcher.Serialize(argsA))
	resB := rs.Evaluate("shell", matcher.Serialize(argsB))
	if resA.Decision != resB.Decision || resA.RuleIndex != resB.RuleIndex {
		t.Fatalf("key-order permutation changed the decision: %+v vs %+v", resA, resB)
	}
	if resA.Decision != DecisionAllow {
		t.Fatalf("decision = %s, want allow", resA.Decision)
	}
}

func TestToolPatternGlobs(t *testing.T) {
	rs := RuleSet{
		Name: "globs",
		Rules: []Rule{
			{ToolPattern: "mcp:filesystem:*", Decision: DecisionAllow},
			{ToolPattern: "agent:*", Decision: DecisionAsk},
		},
	}

	if res := rs.Evaluate("mcp:filesystem:read_file", "{}"); res.Decision != DecisionAllow {
		t.Fatalf("mcp tool: %s", res.Decision)
	}
	if res := rs.Evaluate("agent:researcher", "{}"); res.Decision != DecisionAsk {
		t.Fatalf("agent tool: %s", res.Decision)
	}
	if res := rs.Evaluate("mcp:github:create_issue", "{}"); res.Decision != DecisionAsk {
		t.Fatalf("unmatched tool should ask: %s", res.Decision)
	}
}

func TestArgsPatternCrossesPathSeparators(t *testing.T) {
	rs := RuleSet{
		Name: "paths",
		Rules: []Rule{
			{ToolPattern: "Edit", ArgsPattern: `*"path":"/srv/project/*`, Decision: DecisionAllow},
		},
	}
	key := matcher.Serialize(map[string]any{"path": "/srv/project/pkg/main.go"})
	if res := rs.Evaluate("Edit", key); res.Decision != DecisionAllow {
		t.Fatalf("decision = %s, want allow for %s", res.Decision, key)
	}
}

func TestPresetsValidate(t *testing.T) {
	for name, rs := range Presets() {
		if err := rs.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}
}
