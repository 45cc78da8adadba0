package finding

import (
	"github.com/google/uuid"
)

// Severity is the canonical severity scale every source-specific severity
// vocabulary is mapped into.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityHint     Severity = "hint"
)

// String returns the string representation of Severity.
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the severity is a valid canonical value.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityHint:
		return true
	default:
		return false
	}
}

// Rank returns an ordering weight for the severity, higher meaning more
// severe. Unknown values rank below hint.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 2
	case SeverityHint:
		return 1
	default:
		return 0
	}
}

// Category is the closed set of sustainability and quality categories
// findings are classified into.
type Category string

const (
	CategoryPerformanceCritical    Category = "performance-critical"
	CategoryResourceOptimization   Category = "resource-optimization"
	CategoryNetworkEfficiency      Category = "network-efficiency"
	CategoryDataEfficiency         Category = "data-efficiency"
	CategorySecurityVulnerability  Category = "security-vulnerability"
	CategoryCodeQuality            Category = "code-quality"
	CategoryAccessibility          Category = "accessibility"
	CategorySustainabilityPatterns Category = "sustainability-patterns"
)

// String returns the string representation of Category.
func (c Category) String() string {
	return string(c)
}

// IsValid checks if the category is a valid value.
func (c Category) IsValid() bool {
	switch c {
	case CategoryPerformanceCritical, CategoryResourceOptimization,
		CategoryNetworkEfficiency, CategoryDataEfficiency,
		CategorySecurityVulnerability, CategoryCodeQuality,
		CategoryAccessibility, CategorySustainabilityPatterns:
		return true
	default:
		return false
	}
}

// Range locates a finding within a file. EndLine/EndColumn may equal the
// start when the source tool reports a single position.
type Range struct {
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column"`
	EndLine     int `json:"end_line"`
	EndColumn   int `json:"end_column"`
}

// Finding is the uniform record every tool's raw output is normalized into.
// Severity and Category are always populated after normalization, even when
// the raw record was malformed.
type Finding struct {
	ID         string         `json:"id"`
	Tool       string         `json:"tool"`
	RuleID     string         `json:"rule_id"`
	FilePath   string         `json:"file_path"`
	Location   *Range         `json:"location,omitempty"`
	Severity   Severity       `json:"severity"`
	Category   Category       `json:"category"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// New creates a Finding with a fresh ID for the given source tool.
func New(tool string) Finding {
	return Finding{
		ID:   uuid.New().String(),
		Tool: tool,
	}
}
