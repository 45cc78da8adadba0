// Package catalog holds the immutable tool descriptor catalog. Descriptors
// are loaded once at startup, validated against their ecosystem variant, and
// never mutated afterwards.
package catalog

import (
	"github.com/climateandtech/carbonara-sub002/internal/finding"
)

// Ecosystem is the installation/runtime family a tool belongs to.
type Ecosystem string

const (
	EcosystemJSPackage     Ecosystem = "js-package"
	EcosystemPythonPackage Ecosystem = "python-package"
	EcosystemBinary        Ecosystem = "binary"
	EcosystemContainer     Ecosystem = "container"
	EcosystemBuiltIn       Ecosystem = "built-in"
)

// IsValid checks if the ecosystem is a known value.
func (e Ecosystem) IsValid() bool {
	switch e {
	case EcosystemJSPackage, EcosystemPythonPackage, EcosystemBinary,
		EcosystemContainer, EcosystemBuiltIn:
		return true
	default:
		return false
	}
}

// DetectionMethod is one discrete way of probing whether a tool is usable.
type DetectionMethod string

const (
	DetectCommandProbe  DetectionMethod = "command-probe"
	DetectPackageQuery  DetectionMethod = "package-query"
	DetectFileExistence DetectionMethod = "file-existence"
)

// IsValid checks if the detection method is a known value.
func (m DetectionMethod) IsValid() bool {
	switch m {
	case DetectCommandProbe, DetectPackageQuery, DetectFileExistence:
		return true
	default:
		return false
	}
}

// OutputFormat describes how a tool serializes its analysis output.
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
	FormatText OutputFormat = "text"
)

// IsValid checks if the output format is a known value.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatJSON, FormatYAML, FormatText:
		return true
	default:
		return false
	}
}

// InstallationSpec describes how a tool is installed in its ecosystem.
type InstallationSpec struct {
	Type Ecosystem `mapstructure:"type" yaml:"type"`

	// Package is the primary package identifier for package ecosystems.
	Package string `mapstructure:"package" yaml:"package"`

	// Global installs the package system-wide instead of project-local.
	Global bool `mapstructure:"global" yaml:"global"`

	// Command is the verbatim install command for binary/container tools.
	Command string `mapstructure:"command" yaml:"command"`

	// Instructions is the human remediation text surfaced on failure.
	Instructions string `mapstructure:"instructions" yaml:"instructions"`
}

// DetectionSpec describes the live probe chain for a tool. Either Target or
// Commands is set depending on the method.
type DetectionSpec struct {
	Method   DetectionMethod `mapstructure:"method" yaml:"method"`
	Target   string          `mapstructure:"target" yaml:"target"`
	Commands []string        `mapstructure:"commands" yaml:"commands"`

	// SuccessPattern, when set, must appear in probe output for the probe
	// to count as successful. A spawned process alone is never a success
	// signal.
	SuccessPattern string `mapstructure:"successPattern" yaml:"successPattern"`
}

// CommandSpec describes how to invoke the tool for analysis.
type CommandSpec struct {
	Executable   string       `mapstructure:"executable" yaml:"executable"`
	Args         []string     `mapstructure:"args" yaml:"args"`
	OutputFormat OutputFormat `mapstructure:"outputFormat" yaml:"outputFormat"`
}

// ParsingConfig drives the declarative normalizer.
type ParsingConfig struct {
	// FindingsPath is a dot path into the raw payload locating the array
	// of raw issue records.
	FindingsPath string `mapstructure:"findingsPath" yaml:"findingsPath"`

	// StatsPath optionally locates a stats block. When empty or
	// unresolvable, stats are recomputed from the findings.
	StatsPath string `mapstructure:"statsPath" yaml:"statsPath"`

	// Mappings maps target Finding fields to source field names.
	Mappings map[string]string `mapstructure:"mappings" yaml:"mappings"`

	// SeverityMap translates raw severity tokens to canonical severities.
	SeverityMap map[string]finding.Severity `mapstructure:"severityMap" yaml:"severityMap"`

	// CategoryMap translates rule ids/tags to canonical categories.
	CategoryMap map[string]finding.Category `mapstructure:"categoryMap" yaml:"categoryMap"`

	DefaultCategory finding.Category `mapstructure:"defaultCategory" yaml:"defaultCategory"`
}

// Parsing mode selectors.
const (
	ParsingConfigDriven = "config-driven"
	ParsingCustom       = "custom"
)

// ParsingSpec selects between the declarative mapper and a named custom
// parser for one source schema.
type ParsingSpec struct {
	Type         string         `mapstructure:"type" yaml:"type"`
	CustomParser string         `mapstructure:"customParser" yaml:"customParser"`
	Config       *ParsingConfig `mapstructure:"config" yaml:"config"`
}

// Parameter declares a named invocation parameter.
type Parameter struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Required bool   `mapstructure:"required" yaml:"required"`
	Type     string `mapstructure:"type" yaml:"type"`
}

// Prerequisite declares an auxiliary environment requirement checked before
// a tool is invoked.
type Prerequisite struct {
	Type              string `mapstructure:"type" yaml:"type"`
	Name              string `mapstructure:"name" yaml:"name"`
	CheckCommand      string `mapstructure:"checkCommand" yaml:"checkCommand"`
	ExpectedOutput    string `mapstructure:"expectedOutput" yaml:"expectedOutput"`
	ErrorMessage      string `mapstructure:"errorMessage" yaml:"errorMessage"`
	InstallCommand    string `mapstructure:"installCommand" yaml:"installCommand"`
	SetupInstructions string `mapstructure:"setupInstructions" yaml:"setupInstructions"`
}

// Option declares a user-facing tool flag.
type Option struct {
	Flag        string `mapstructure:"flag" yaml:"flag"`
	Description string `mapstructure:"description" yaml:"description"`
	Type        string `mapstructure:"type" yaml:"type"`
}

// Descriptor is the immutable record describing one external analysis tool:
// identity, installation, detection, invocation, and parsing configuration.
type Descriptor struct {
	ID          string `mapstructure:"id" yaml:"id"`
	Name        string `mapstructure:"name" yaml:"name"`
	Description string `mapstructure:"description" yaml:"description"`

	Installation InstallationSpec `mapstructure:"installation" yaml:"installation"`
	Detection    DetectionSpec    `mapstructure:"detection" yaml:"detection"`
	Command      CommandSpec      `mapstructure:"command" yaml:"command"`

	Parsing *ParsingSpec `mapstructure:"parsing" yaml:"parsing"`

	// ManifestTemplate is an arbitrarily nested structure containing
	// {placeholder} tokens, instantiated per invocation.
	ManifestTemplate map[string]any `mapstructure:"manifestTemplate" yaml:"manifestTemplate"`

	Parameters    []Parameter    `mapstructure:"parameters" yaml:"parameters"`
	Prerequisites []Prerequisite `mapstructure:"prerequisites" yaml:"prerequisites"`
	Options       []Option       `mapstructure:"options" yaml:"options"`
}
