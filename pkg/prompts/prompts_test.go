package prompts

import (
	"strings"
	"testing"
)

func TestRegistryEntriesAreSelfConsistent(t *testing.T) {
	for key, p := range Registry {
		if p.Name != key {
			t.Fatalf("registry key %q does not match Prompt.Name %q", key, p.Name)
		}
		if p.Description == "" {
			t.Fatalf("prompt %q has no description", key)
		}
		if p.Text == "" {
			t.Fatalf("prompt %q has no text", key)
		}
	}
}

func TestNamesMatchesRegistryKeys(t *testing.T) {
	names := Names()
	if len(names) != len(Registry) {
		t.Fatalf("got %d names, want %d", len(names), len(Registry))
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for k := range Registry {
		if !seen[k] {
			t.Fatalf("Names() missing registry key %q", k)
		}
	}
}

func TestSpecCreationPromptCoversTheFourPhases(t *testing.T) {
	p, ok := Registry["spec_creation"]
	if !ok {
		t.Fatalf("expected a spec_creation prompt")
	}
	for _, phase := range []string{"requirements", "design", "planning", "execution"} {
		if !strings.Contains(p.Text, phase) {
			t.Fatalf("expected spec_creation text to mention %q, got %q", phase, p.Text)
		}
	}
}
