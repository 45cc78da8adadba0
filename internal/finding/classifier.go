package finding

import (
	"strings"
)

// keywordRule associates message keywords with a category. Rules are
// evaluated in table order and the first match wins, which keeps free-text
// classification deterministic across runs.
type keywordRule struct {
	keywords []string
	category Category
}

// keywordTable is the ordered free-text fallback used when neither an exact
// nor a prefix category mapping matches a finding's rule id. Order matters:
// more specific phrases come before generic ones.
var keywordTable = []keywordRule{
	{[]string{"memory leak", "leak"}, CategoryPerformanceCritical},
	{[]string{"cpu intensive", "blocking", "slow"}, CategoryPerformanceCritical},
	{[]string{"unused", "dead code", "redundant"}, CategoryResourceOptimization},
	{[]string{"cache", "buffer size", "allocation"}, CategoryResourceOptimization},
	{[]string{"network", "http request", "polling", "websocket"}, CategoryNetworkEfficiency},
	{[]string{"compress", "payload size", "image size", "csv"}, CategoryDataEfficiency},
	{[]string{"vulnerab", "injection", "xss"}, CategoryCodeQuality},
	{[]string{"aria", "alt text", "contrast", "screen reader"}, CategoryAccessibility},
	{[]string{"carbon", "energy", "battery", "power consumption"}, CategorySustainabilityPatterns},
}

// ClassifyMessage scans a finding message against the ordered keyword table.
// Returns the matched category and true, or a zero category and false when
// no keyword applies.
func ClassifyMessage(message string) (Category, bool) {
	text := strings.ToLower(message)
	for _, rule := range keywordTable {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category, true
			}
		}
	}
	return "", false
}
