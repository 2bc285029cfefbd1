package interaction

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/careops/careops/internal/domain/alert"
)

// RuleSource is the interaction knowledge base. The built-in tables are a
// deliberately small placeholder; a real pharmacological source can be
// swapped in without touching the evaluator.
type RuleSource interface {
	// InteractsWith reports whether the unordered pair of medication names
	// is a known interaction.
	InteractsWith(a, b string) bool
	// SeverityFor returns the severity recorded for the pair, if any.
	// Pairs known to interact but absent here are treated as MILD.
	SeverityFor(a, b string) (alert.Severity, bool)
}

type memoryRules struct {
	interactions map[string]map[string]bool
	severities   map[string]alert.Severity
}

func pairKey(a, b string) string {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func (m *memoryRules) InteractsWith(a, b string) bool {
	if peers, ok := m.interactions[strings.ToLower(a)]; ok && peers[strings.ToLower(b)] {
		return true
	}
	if peers, ok := m.interactions[strings.ToLower(b)]; ok && peers[strings.ToLower(a)] {
		return true
	}
	return false
}

func (m *memoryRules) SeverityFor(a, b string) (alert.Severity, bool) {
	sev, ok := m.severities[pairKey(a, b)]
	return sev, ok
}

func newMemoryRules(interactions map[string][]string, severities map[string]alert.Severity) *memoryRules {
	idx := make(map[string]map[string]bool, len(interactions))
	for med, peers := range interactions {
		med = strings.ToLower(med)
		if idx[med] == nil {
			idx[med] = make(map[string]bool, len(peers))
		}
		for _, peer := range peers {
			idx[med][strings.ToLower(peer)] = true
		}
	}
	return &memoryRules{interactions: idx, severities: severities}
}

// DefaultRules returns the built-in placeholder tables.
func DefaultRules() RuleSource {
	return newMemoryRules(
		map[string][]string{
			"warfarin":     {"aspirin", "ibuprofen", "fluconazole", "amiodarone"},
			"simvastatin":  {"clarithromycin", "amlodipine"},
			"lisinopril":   {"spironolactone", "potassium chloride"},
			"methotrexate": {"trimethoprim"},
			"sildenafil":   {"nitroglycerin"},
		},
		map[string]alert.Severity{
			pairKey("warfarin", "fluconazole"):       alert.SeveritySevere,
			pairKey("warfarin", "amiodarone"):        alert.SeveritySevere,
			pairKey("warfarin", "ibuprofen"):         alert.SeverityModerate,
			pairKey("simvastatin", "clarithromycin"): alert.SeveritySevere,
			pairKey("simvastatin", "amlodipine"):     alert.SeverityModerate,
			pairKey("lisinopril", "spironolactone"):  alert.SeverityModerate,
			pairKey("methotrexate", "trimethoprim"):  alert.SeveritySevere,
			pairKey("sildenafil", "nitroglycerin"):   alert.SeverityContraindication,
		},
	)
}

type rulesFile struct {
	Interactions map[string][]string `json:"interactions"`
	Severities   []struct {
		A        string `json:"a"`
		B        string `json:"b"`
		Severity string `json:"severity"`
	} `json:"severities"`
}

// LoadRulesFile reads a JSON rule table from disk.
func LoadRulesFile(path string) (RuleSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var f rulesFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	severities := make(map[string]alert.Severity, len(f.Severities))
	for _, entry := range f.Severities {
		sev := alert.Severity(entry.Severity)
		if !sev.Valid() {
			return nil, fmt.Errorf("rules file %s: invalid severity %q for %s/%s", path, entry.Severity, entry.A, entry.B)
		}
		severities[pairKey(entry.A, entry.B)] = sev
	}
	return newMemoryRules(f.Interactions, severities), nil
}
