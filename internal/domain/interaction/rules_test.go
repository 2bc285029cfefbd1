package interaction

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/careops/careops/internal/domain/alert"
)

func TestDefaultRules_SymmetricLookup(t *testing.T) {
	rules := DefaultRules()

	if !rules.InteractsWith("Warfarin", "Aspirin") {
		t.Error("warfarin/aspirin should interact")
	}
	if !rules.InteractsWith("aspirin", "warfarin") {
		t.Error("pair lookup must be order-independent")
	}
	if rules.InteractsWith("Warfarin", "Lisinopril") {
		t.Error("warfarin/lisinopril should not interact")
	}
}

func TestDefaultRules_Severities(t *testing.T) {
	rules := DefaultRules()

	sev, ok := rules.SeverityFor("fluconazole", "WARFARIN")
	if !ok || sev != alert.SeveritySevere {
		t.Errorf("warfarin/fluconazole: got (%s, %v), want (SEVERE, true)", sev, ok)
	}
	if _, ok := rules.SeverityFor("warfarin", "aspirin"); ok {
		t.Error("warfarin/aspirin should have no severity entry")
	}
}

func TestLoadRulesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	content := `{
		"interactions": {"druga": ["drugb"]},
		"severities": [{"a": "DrugA", "b": "DrugB", "severity": "SEVERE"}]
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rules, err := LoadRulesFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rules.InteractsWith("druga", "drugb") {
		t.Error("loaded pair should interact")
	}
	sev, ok := rules.SeverityFor("drugb", "druga")
	if !ok || sev != alert.SeveritySevere {
		t.Errorf("got (%s, %v), want (SEVERE, true)", sev, ok)
	}
}

func TestLoadRulesFile_InvalidSeverity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	content := `{"severities": [{"a": "x", "b": "y", "severity": "CATASTROPHIC"}]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := LoadRulesFile(path); err == nil {
		t.Error("expected error for invalid severity")
	}
}

func TestLoadRulesFile_Missing(t *testing.T) {
	if _, err := LoadRulesFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
