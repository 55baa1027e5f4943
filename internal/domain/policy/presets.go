package policy

// Built-in rule sets target the names the registry actually serves:
// the "shell" builtin, "mcp:<server>:<tool>" for MCP servers and
// "agent:<name>" for registered sub-agents.

// PresetReadOnly returns the "read-only" preset: a short list of
// inspection commands runs automatically, every other tool is denied
// outright.
func PresetReadOnly() RuleSet {
	return RuleSet{
		Name:        "read-only",
		Description: "Inspection only. Mutating tools are denied without asking.",
		Rules: []Rule{
			{ToolPattern: "shell", ArgsPattern: `*"command":"git status*`, Decision: DecisionAllow},
			{ToolPattern: "shell", ArgsPattern: `*"command":"git diff*`, Decision: DecisionAllow},
			{ToolPattern: "shell", ArgsPattern: `*"command":"git log*`, Decision: DecisionAllow},
			{ToolPattern: "shell", Decision: DecisionDeny, Reason: "read-only session"},
			{ToolPattern: "agent:*", Decision: DecisionDeny, Reason: "read-only session"},
			{ToolPattern: "mcp:*", Decision: DecisionDeny, Reason: "read-only session"},
		},
	}
}

// PresetSafeAutonomy returns the "safe-autonomy" preset: a known-safe
// command allow-list runs unattended, recursive deletes are stopped,
// everything else asks.
func PresetSafeAutonomy() RuleSet {
	return RuleSet{
		Name:        "safe-autonomy",
		Description: "Known-safe commands run unattended; the rest asks.",
		Rules: []Rule{
			{ToolPattern: "shell", ArgsPattern: `*"command":"git status*`, Decision: DecisionAllow},
			{ToolPattern: "shell", ArgsPattern: `*"command":"git diff*`, Decision: DecisionAllow},
			{ToolPattern: "shell", ArgsPattern: `*"command":"git log*`, Decision: DecisionAllow},
			{ToolPattern: "shell", ArgsPattern: `*"command":"go test*`, Decision: DecisionAllow},
			{ToolPattern: "shell", ArgsPattern: `*"command":"rm -rf*`, Decision: DecisionDeny, Reason: "recursive delete"},
			// No blanket rule for shell, MCP tools or sub-agents: they
			// fall through to the ask default.
		},
	}
}

// PresetPermissive returns the "permissive" preset for trusted batch
// work: everything runs except a deny-list of destructive commands.
func PresetPermissive() RuleSet {
	return RuleSet{
		Name:        "permissive",
		Description: "Trusted batch mode. Only destructive commands are stopped.",
		Rules: []Rule{
			{ToolPattern: "shell", ArgsPattern: `*"command":"rm -rf /*`, Decision: DecisionDeny, Reason: "destructive"},
			{ToolPattern: "shell", ArgsPattern: `*sudo *`, Decision: DecisionAsk, Reason: "privilege escalation"},
			{ToolPattern: "*", Decision: DecisionAllow},
		},
	}
}

// Presets returns all built-in rule sets keyed by name.
func Presets() map[string]RuleSet {
	return map[string]RuleSet{
		"read-only":     PresetReadOnly(),
		"safe-autonomy": PresetSafeAutonomy(),
		"permissive":    PresetPermissive(),
	}
}
