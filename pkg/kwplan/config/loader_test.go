package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/kwplan/pkg/kwplan/internalerr"
)

const ruleYAML = `filters:
  min_search_volume: 100
advanced:
  match_type_strategy: "default"
  exclude_terms: ["jobs"]
  high_priority_terms: ["delivery"]
ad_group_rules:
  # Brand Terms
  - "dominos"
  # Pizza Queries
  - "pizza"
  - "Pasta"
`

func TestLoaderLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(ruleYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := Loader{ConfigPath: path}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if comp.Config == nil || comp.Config.Advanced.MatchTypeStrategy != "default" {
		t.Errorf("Unexpected config: %+v", comp.Config)
	}
	if comp.Raw != ruleYAML {
		t.Error("Raw text should be the unmodified file")
	}
	if comp.Rules.Len() != 3 {
		t.Fatalf("Expected 3 rules, got %d", comp.Rules.Len())
	}
	if group, ok := comp.Rules.Lookup("Dominos Menu"); !ok || group != "Brand Terms" {
		t.Errorf("Expected Brand Terms, got %q (%v)", group, ok)
	}
	if group, _ := comp.Rules.Lookup("fresh pasta"); group != "Pizza Queries" {
		t.Errorf("Expected lowercased term to match, got %q", group)
	}
}

// Dash-quoted list items anywhere in the file read as rule terms, so
// exclusion lists written that way also become rules of the current group.
func TestLoaderDashListsBecomeRules(t *testing.T) {
	yaml := `filters:
  min_search_volume: 100
advanced:
  match_type_strategy: "default"
  exclude_terms:
    - "jobs"
`
	comp, err := FromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("FromBytes failed: %v", err)
	}
	if group, ok := comp.Rules.Lookup("dominos jobs"); !ok || group != "General" {
		t.Errorf("Expected jobs to map to General, got %q (%v)", group, ok)
	}
	if len(comp.Config.Advanced.ExcludeTerms) != 1 {
		t.Errorf("Expected the list to also load as config, got %v", comp.Config.Advanced.ExcludeTerms)
	}
}

func TestLoaderNoPath(t *testing.T) {
	loader := Loader{}
	if _, err := loader.Load(); err == nil {
		t.Error("Should error without a path")
	}
}

func TestLoaderNonExistent(t *testing.T) {
	loader := Loader{ConfigPath: "/nonexistent/config.yaml"}
	if _, err := loader.Load(); err == nil {
		t.Error("Should error on nonexistent config")
	}
}

func TestFromBytesInvalid(t *testing.T) {
	_, err := FromBytes([]byte("advanced:\n  match_type_strategy: default\n"))
	if !errors.Is(err, internalerr.ErrConfiguration) {
		t.Errorf("Expected configuration error, got %v", err)
	}
}
