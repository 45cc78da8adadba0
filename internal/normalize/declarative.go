package normalize

import (
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/finding"
)

// Mapping target field names recognized in a ParsingConfig. Unknown targets
// are ignored rather than rejected so configs can carry tool-side extras.
const (
	targetFilePath   = "filePath"
	targetMessage    = "message"
	targetRuleID     = "ruleId"
	targetSeverity   = "severity"
	targetSuggestion = "suggestion"
	targetLine       = "line"
	targetColumn     = "column"
	targetEndLine    = "endLine"
	targetEndColumn  = "endColumn"
)

// parseDeclarative maps the located raw records into Findings per the
// descriptor's ParsingConfig. A malformed record never fails the batch: every
// missing field gets an empty or neutral default and a Finding is still
// produced.
func parseDeclarative(toolID string, payload any, cfg *catalog.ParsingConfig) ([]finding.Finding, *finding.Stats) {
	findings := []finding.Finding{}

	node, ok := lookupPath(payload, cfg.FindingsPath)
	if ok {
		records, isArray := node.([]any)
		if isArray {
			for _, raw := range records {
				record, _ := raw.(map[string]any)
				findings = append(findings, mapRecord(toolID, record, cfg))
			}
		}
	}

	return findings, extractStats(payload, cfg)
}

// mapRecord builds one Finding from one raw record. record may be nil for a
// raw entry of the wrong shape; the result still satisfies the Finding
// invariants.
func mapRecord(toolID string, record map[string]any, cfg *catalog.ParsingConfig) finding.Finding {
	f := finding.New(toolID)

	f.FilePath = stringField(record, source(cfg, targetFilePath))
	f.Message = stringField(record, source(cfg, targetMessage))
	f.RuleID = stringField(record, source(cfg, targetRuleID))
	f.Suggestion = stringField(record, source(cfg, targetSuggestion))

	if line := intField(record, source(cfg, targetLine)); line > 0 {
		loc := &finding.Range{StartLine: line, EndLine: line}
		loc.StartColumn = intField(record, source(cfg, targetColumn))
		loc.EndColumn = loc.StartColumn
		if end := intField(record, source(cfg, targetEndLine)); end > 0 {
			loc.EndLine = end
		}
		if end := intField(record, source(cfg, targetEndColumn)); end > 0 {
			loc.EndColumn = end
		}
		f.Location = loc
	}

	rawSeverity := stringField(record, source(cfg, targetSeverity))
	f.Severity = mapSeverity(rawSeverity, cfg.SeverityMap)
	f.Category = resolveCategory(f.RuleID, f.Message, cfg)

	return f
}

// source resolves the raw field name feeding a Finding field, defaulting to
// the target name itself when the config declares no mapping.
func source(cfg *catalog.ParsingConfig, target string) string {
	if cfg.Mappings != nil {
		if name, ok := cfg.Mappings[target]; ok {
			return name
		}
	}
	return target
}

// mapSeverity translates a raw severity token through the severity map. An
// unknown or missing token resolves to the lowest-confidence default.
func mapSeverity(token string, severityMap map[string]finding.Severity) finding.Severity {
	if sev, ok := severityMap[token]; ok && sev.IsValid() {
		return sev
	}
	// Canonical tokens pass through even without an explicit map entry.
	if sev := finding.Severity(strings.ToLower(token)); sev.IsValid() {
		return sev
	}
	return finding.SeverityHint
}

// resolveCategory applies the category precedence chain: exact rule id entry,
// then prefix/substring match against map keys, then the ordered free-text
// keyword heuristic over the message, then the configured default.
func resolveCategory(ruleID, message string, cfg *catalog.ParsingConfig) finding.Category {
	if cat, ok := cfg.CategoryMap[ruleID]; ok && cat.IsValid() {
		return cat
	}

	if ruleID != "" && len(cfg.CategoryMap) > 0 {
		// Longest key first keeps prefix matching deterministic when one
		// key is a prefix of another.
		keys := make([]string, 0, len(cfg.CategoryMap))
		for k := range cfg.CategoryMap {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if len(keys[i]) != len(keys[j]) {
				return len(keys[i]) > len(keys[j])
			}
			return keys[i] < keys[j]
		})
		for _, key := range keys {
			if key == "" {
				continue
			}
			if strings.HasPrefix(ruleID, key) || strings.Contains(ruleID, key) {
				if cat := cfg.CategoryMap[key]; cat.IsValid() {
					return cat
				}
			}
		}
	}

	if cat, ok := finding.ClassifyMessage(message); ok {
		return cat
	}

	if cfg.DefaultCategory.IsValid() {
		return cfg.DefaultCategory
	}
	return finding.CategoryCodeQuality
}

// extractStats reads the payload's stats block when the config names one and
// it decodes cleanly. Returns nil when stats must be recomputed.
func extractStats(payload any, cfg *catalog.ParsingConfig) *finding.Stats {
	if cfg.StatsPath == "" {
		return nil
	}
	node, ok := lookupPath(payload, cfg.StatsPath)
	if !ok {
		return nil
	}
	var stats finding.Stats
	if err := mapstructure.Decode(node, &stats); err != nil {
		return nil
	}
	return &stats
}
