package normalize

import (
	"strings"

	"github.com/climateandtech/carbonara-sub002/internal/finding"
)

// customParser converts one irregular source schema into canonical Findings.
// target is the analyzed path or URL, used where the schema carries no file
// locations of its own.
type customParser func(toolID string, payload any, target string) []finding.Finding

// customParsers is the closed set of named custom parsers. Dispatch is an
// explicit map lookup, not open-ended dynamic resolution.
var customParsers = map[string]customParser{
	"eslint":     parseESLint,
	"sonarqube":  parseSonarQube,
	"lighthouse": parseLighthouse,
}

// parseESLint handles ESLint's nested file/messages layout: an array of file
// entries, each carrying its own message list. Severity 2 is an error,
// severity 1 a warning.
func parseESLint(toolID string, payload any, _ string) []finding.Finding {
	findings := []finding.Finding{}

	files, ok := payload.([]any)
	if !ok {
		return findings
	}

	for _, rawFile := range files {
		file, _ := rawFile.(map[string]any)
		filePath := stringField(file, "filePath")
		messages, _ := lookupPath(file, "messages")
		records, _ := messages.([]any)

		for _, raw := range records {
			record, _ := raw.(map[string]any)

			f := finding.New(toolID)
			f.FilePath = filePath
			f.RuleID = stringField(record, "ruleId")
			f.Message = stringField(record, "message")

			switch intField(record, "severity") {
			case 2:
				f.Severity = finding.SeverityHigh
			case 1:
				f.Severity = finding.SeverityLow
			default:
				f.Severity = finding.SeverityHint
			}

			if line := intField(record, "line"); line > 0 {
				f.Location = &finding.Range{
					StartLine:   line,
					StartColumn: intField(record, "column"),
					EndLine:     intField(record, "endLine"),
					EndColumn:   intField(record, "endColumn"),
				}
				if f.Location.EndLine == 0 {
					f.Location.EndLine = line
				}
			}

			f.Category = eslintCategory(f.RuleID, f.Message)
			if fix, ok := field(record, "fix"); ok && fix != nil {
				f.Suggestion = "auto-fixable"
			}

			findings = append(findings, f)
		}
	}

	return findings
}

func eslintCategory(ruleID, message string) finding.Category {
	switch {
	case strings.HasPrefix(ruleID, "@ecocode/"), strings.HasPrefix(ruleID, "@creedengo/"):
		return finding.CategorySustainabilityPatterns
	case strings.HasPrefix(ruleID, "jsx-a11y/"):
		return finding.CategoryAccessibility
	}
	// The rule id is the stronger signal: "no-unused-vars" names the defect
	// class even when the message paraphrases it away.
	if cat, ok := finding.ClassifyMessage(ruleID); ok {
		return cat
	}
	if cat, ok := finding.ClassifyMessage(message); ok {
		return cat
	}
	return finding.CategoryCodeQuality
}

// parseSonarQube handles SonarQube's issue/component cross-reference layout:
// issues name a component key whose file path lives in a separate components
// array.
func parseSonarQube(toolID string, payload any, _ string) []finding.Finding {
	findings := []finding.Finding{}

	root, ok := payload.(map[string]any)
	if !ok {
		return findings
	}

	// Component key -> file path.
	paths := make(map[string]string)
	if components, ok := lookupPath(root, "components"); ok {
		if list, ok := components.([]any); ok {
			for _, raw := range list {
				component, _ := raw.(map[string]any)
				key := stringField(component, "key")
				if key == "" {
					continue
				}
				paths[key] = stringField(component, "path")
			}
		}
	}

	issues, _ := lookupPath(root, "issues")
	records, _ := issues.([]any)

	for _, raw := range records {
		record, _ := raw.(map[string]any)

		f := finding.New(toolID)
		f.RuleID = stringField(record, "rule")
		f.Message = stringField(record, "message")
		f.FilePath = paths[stringField(record, "component")]
		f.Severity = sonarSeverity(stringField(record, "severity"))
		f.Category = sonarCategory(record, f.RuleID, f.Message)

		if line := intField(record, "line"); line > 0 {
			f.Location = &finding.Range{StartLine: line, EndLine: line}
		}
		if textRange, ok := field(record, "textRange"); ok {
			if tr, ok := textRange.(map[string]any); ok {
				f.Location = &finding.Range{
					StartLine:   intField(tr, "startLine"),
					StartColumn: intField(tr, "startOffset"),
					EndLine:     intField(tr, "endLine"),
					EndColumn:   intField(tr, "endOffset"),
				}
			}
		}

		findings = append(findings, f)
	}

	return findings
}

func sonarSeverity(token string) finding.Severity {
	switch strings.ToUpper(token) {
	case "BLOCKER":
		return finding.SeverityCritical
	case "CRITICAL":
		return finding.SeverityHigh
	case "MAJOR":
		return finding.SeverityMedium
	case "MINOR":
		return finding.SeverityLow
	case "INFO":
		return finding.SeverityHint
	default:
		return finding.SeverityHint
	}
}

func sonarCategory(record map[string]any, ruleID, message string) finding.Category {
	if t := stringField(record, "type"); strings.EqualFold(t, "VULNERABILITY") {
		return finding.CategorySecurityVulnerability
	}
	if strings.Contains(ruleID, "ecocode") || strings.Contains(ruleID, "gci") {
		return finding.CategorySustainabilityPatterns
	}
	if cat, ok := finding.ClassifyMessage(message); ok {
		return cat
	}
	return finding.CategoryCodeQuality
}

// parseLighthouse turns failing Lighthouse audits into findings against the
// audited URL. Audits scoring 1.0 (or not numerically scored) pass.
func parseLighthouse(toolID string, payload any, target string) []finding.Finding {
	findings := []finding.Finding{}

	root, ok := payload.(map[string]any)
	if !ok {
		return findings
	}

	audits, _ := lookupPath(root, "audits")
	byID, _ := audits.(map[string]any)

	// Audit id -> owning Lighthouse category.
	auditCategory := make(map[string]string)
	if categories, ok := lookupPath(root, "categories"); ok {
		if cats, ok := categories.(map[string]any); ok {
			for catName, rawCat := range cats {
				cat, _ := rawCat.(map[string]any)
				refs, _ := lookupPath(cat, "auditRefs")
				list, _ := refs.([]any)
				for _, rawRef := range list {
					ref, _ := rawRef.(map[string]any)
					if id := stringField(ref, "id"); id != "" {
						auditCategory[id] = catName
					}
				}
			}
		}
	}

	for id, rawAudit := range byID {
		audit, _ := rawAudit.(map[string]any)
		if stringField(audit, "scoreDisplayMode") == "notApplicable" {
			continue
		}
		scoreVal, ok := field(audit, "score")
		if !ok || scoreVal == nil {
			continue
		}
		score, isNum := scoreVal.(float64)
		if !isNum || score >= 1.0 {
			continue
		}

		f := finding.New(toolID)
		f.RuleID = id
		f.FilePath = target
		f.Message = stringField(audit, "title")
		if desc := stringField(audit, "description"); desc != "" {
			f.Suggestion = desc
		}

		switch {
		case score < 0.5:
			f.Severity = finding.SeverityHigh
		case score < 0.9:
			f.Severity = finding.SeverityMedium
		default:
			f.Severity = finding.SeverityLow
		}

		f.Category = lighthouseCategory(auditCategory[id])
		f.Metadata = map[string]any{"score": score}

		findings = append(findings, f)
	}

	return findings
}

func lighthouseCategory(name string) finding.Category {
	switch name {
	case "performance":
		return finding.CategoryPerformanceCritical
	case "accessibility":
		return finding.CategoryAccessibility
	case "best-practices", "seo":
		return finding.CategoryCodeQuality
	default:
		return finding.CategoryNetworkEfficiency
	}
}
