package policy

import (
	"testing"

	"github.com/Strob0t/Overseer/internal/matcher"
)

func TestReadOnlyDeniesMutatingTools(t *testing.T) {
	rs := PresetReadOnly()

	key := matcher.Serialize(map[string]any{"command": "touch /tmp/x"})
	if res := rs.Evaluate("shell", key); res.Decision != DecisionDeny {
		t.Fatalf("mutating shell command: %s, want deny", res.Decision)
	}
	if res := rs.Evaluate("agent:deployer", "{}"); res.Decision != DecisionDeny {
		t.Fatalf("sub-agent: %s, want deny", res.Decision)
	}
	if res := rs.Evaluate("mcp:github:create_issue", "{}"); res.Decision != DecisionDeny {
		t.Fatalf("mcp tool: %s, want deny", res.Decision)
	}
}

func TestReadOnlyAllowsInspectionCommands(t *testing.T) {
	rs := PresetReadOnly()
	key := matcher.Serialize(map[string]any{"command": "git status --short"})
	if res := rs.Evaluate("shell", key); res.Decision != DecisionAllow {
		t.Fatalf("git status: %s, want allow (reason %s)", res.Decision, res.Reason)
	}
}

func TestSafeAutonomyCommandRules(t *testing.T) {
	rs := PresetSafeAutonomy()

	key := matcher.Serialize(map[string]any{"command": "go test ./..."})
	if res := rs.Evaluate("shell", key); res.Decision != DecisionAllow {
		t.Fatalf("go test: %s, want allow", res.Decision)
	}
	key = matcher.Serialize(map[string]any{"command": "rm -rf build"})
	if res := rs.Evaluate("shell", key); res.Decision != DecisionDeny {
		t.Fatalf("recursive delete: %s, want deny", res.Decision)
	}
	key = matcher.Serialize(map[string]any{"command": "make deploy"})
	if res := rs.Evaluate("shell", key); res.Decision != DecisionAsk {
		t.Fatalf("unlisted command: %s, want ask", res.Decision)
	}
	if res := rs.Evaluate("mcp:filesystem:write_file", "{}"); res.Decision != DecisionAsk {
		t.Fatalf("mcp tool: %s, want ask", res.Decision)
	}
}

func TestPermissiveStopsDestructiveCommands(t *testing.T) {
	rs := PresetPermissive()

	key := matcher.Serialize(map[string]any{"command": "rm -rf /var/lib"})
	if res := rs.Evaluate("shell", key); res.Decision != DecisionDeny {
		t.Fatalf("rm -rf /: %s, want deny", res.Decision)
	}
	key = matcher.Serialize(map[string]any{"command": "sudo systemctl restart db"})
	if res := rs.Evaluate("shell", key); res.Decision != DecisionAsk {
		t.Fatalf("sudo: %s, want ask", res.Decision)
	}
	if res := rs.Evaluate("mcp:github:create_issue", "{}"); res.Decision != DecisionAllow {
		t.Fatalf("mcp tool: %s, want allow", res.Decision)
	}
	key = matcher.Serialize(map[string]any{"command": "ls -la"})
	if res := rs.Evaluate("shell", key); res.Decision != DecisionAllow {
		t.Fatalf("plain command: %s, want allow", res.Decision)
	}
}
