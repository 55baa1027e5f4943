package agent

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()

	local := `
name: researcher
description: read-only exploration
kind: local
local:
  model: gpt-test
  tools: [shell]
  rule_set: read-only
  max_turns: 10
  max_time: 5m
`
	remote := `
name: deployer
kind: remote
remote:
  url: https://agents.example.com/deployer
`
	if err := os.WriteFile(filepath.Join(dir, "researcher.yaml"), []byte(local), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "deployer.yml"), []byte(remote), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644); err != nil {
		t.Fatal(err)
	}

	defs, err := LoadFromDirectory(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}

	byName := map[string]Definition{}
	for _, d := range defs {
		byName[d.Name] = d
	}

	r := byName["researcher"]
	if r.Kind != KindLocal || r.Local == nil {
		t.Fatalf("unexpected researcher definition: %+v", r)
	}
	if r.Local.MaxTime != 5*time.Minute || r.Local.RuleSet != "read-only" {
		t.Errorf("unexpected local settings: %+v", r.Local)
	}

	d := byName["deployer"]
	if d.Kind != KindRemote || d.Remote == nil || d.Remote.URL == "" {
		t.Errorf("unexpected deployer definition: %+v", d)
	}
}

func TestLoadFromDirectoryMissing(t *testing.T) {
	defs, err := LoadFromDirectory("/nonexistent/agents")
	if err != nil {
		t.Fatalf("missing directory should not error, got %v", err)
	}
	if len(defs) != 0 {
		t.Errorf("expected no definitions, got %d", len(defs))
	}
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	bad := `
name: broken
kind: local
local:
  model: gpt-test
  max_turns: 0
  max_time: 1m
`
	if err := os.WriteFile(path, []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Fatal("expected validation error")
	}
}
