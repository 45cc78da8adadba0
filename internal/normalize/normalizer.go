package normalize

import (
	"encoding/json"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/finding"
	"github.com/climateandtech/carbonara-sub002/internal/types"
)

// Report is the normalized outcome of one tool run: the canonical finding
// list plus aggregate stats.
type Report struct {
	Tool     string            `json:"tool"`
	Findings []finding.Finding `json:"findings"`
	Stats    finding.Stats     `json:"stats"`
}

// Normalizer converts heterogeneous raw tool output into Reports, driven by
// the per-tool parsing spec in the catalog.
type Normalizer struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func New(cat *catalog.Catalog, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		catalog: cat,
		logger:  logger.With("component", "normalizer"),
	}
}

// Parse normalizes rawOutput from the named tool. target is the analyzed
// path or URL, passed through to parsers whose source schema carries no file
// locations. An unknown tool id, or a tool without a parsing spec, yields an
// empty well-formed Report rather than an error; only a payload that cannot
// be decoded at all is surfaced as an error.
func (n *Normalizer) Parse(toolID string, rawOutput []byte, target string) (*Report, error) {
	report := &Report{Tool: toolID, Findings: []finding.Finding{}}

	desc, err := n.catalog.Get(toolID)
	if err != nil {
		n.logger.Warn("normalizing output for unknown tool", "tool", toolID)
		return report, nil
	}
	if desc.Parsing == nil {
		return report, nil
	}

	payload, err := decode(rawOutput, desc.Command.OutputFormat)
	if err != nil {
		return nil, types.WrapError(types.PARSE_INVALID_PAYLOAD,
			"tool "+toolID+" produced an unparseable payload", err)
	}

	var payloadStats *finding.Stats

	switch desc.Parsing.Type {
	case catalog.ParsingCustom:
		parser, ok := customParsers[desc.Parsing.CustomParser]
		if !ok {
			return nil, types.NewError(types.PARSE_NO_PARSER,
				"no custom parser named "+desc.Parsing.CustomParser)
		}
		report.Findings = parser(toolID, payload, target)
	default:
		cfg := desc.Parsing.Config
		if cfg == nil {
			cfg = &catalog.ParsingConfig{}
		}
		report.Findings, payloadStats = parseDeclarative(toolID, payload, cfg)
	}

	if payloadStats != nil {
		report.Stats = *payloadStats
	} else {
		report.Stats = finding.ComputeStats(report.Findings)
	}

	n.logger.Debug("normalized tool output",
		"tool", toolID,
		"findings", len(report.Findings))
	return report, nil
}

// decode unmarshals raw output per the tool's declared format. Text output
// is handed to parsers as a plain string.
func decode(raw []byte, format catalog.OutputFormat) (any, error) {
	switch format {
	case catalog.FormatYAML:
		var payload any
		if err := yaml.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	case catalog.FormatText:
		return string(raw), nil
	default:
		var payload any
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	}
}
