package catalog

import (
	"fmt"

	"github.com/climateandtech/carbonara-sub002/internal/types"
)

// Validate checks the descriptor against its ecosystem variant schema.
// Invalid descriptors are rejected at catalog load, never later at detection
// or parse time.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return types.NewError(types.CATALOG_INVALID_TOOL, "descriptor is missing an id")
	}
	if d.Name == "" {
		return invalid(d.ID, "missing name")
	}
	if !d.Installation.Type.IsValid() {
		return invalid(d.ID, fmt.Sprintf("unknown ecosystem %q", d.Installation.Type))
	}

	switch d.Installation.Type {
	case EcosystemJSPackage, EcosystemPythonPackage:
		if d.Installation.Package == "" {
			return invalid(d.ID, fmt.Sprintf("%s tool requires installation.package", d.Installation.Type))
		}
	case EcosystemBinary, EcosystemContainer:
		if d.Installation.Command == "" && d.Installation.Instructions == "" {
			return invalid(d.ID, fmt.Sprintf("%s tool requires installation.command or instructions", d.Installation.Type))
		}
	case EcosystemBuiltIn:
		// Nothing to install or detect.
	}

	if d.Installation.Type != EcosystemBuiltIn {
		if err := d.validateDetection(); err != nil {
			return err
		}
	}

	if d.Command.Executable == "" && d.Installation.Type != EcosystemBuiltIn {
		return invalid(d.ID, "missing command.executable")
	}
	if d.Command.OutputFormat != "" && !d.Command.OutputFormat.IsValid() {
		return invalid(d.ID, fmt.Sprintf("unknown output format %q", d.Command.OutputFormat))
	}

	if err := d.validateParsing(); err != nil {
		return err
	}

	for _, p := range d.Parameters {
		if p.Name == "" {
			return invalid(d.ID, "parameter with empty name")
		}
		switch p.Type {
		case "", "string", "number", "boolean":
		default:
			return invalid(d.ID, fmt.Sprintf("parameter %q has unknown type %q", p.Name, p.Type))
		}
	}

	for _, p := range d.Prerequisites {
		if p.Name == "" || p.CheckCommand == "" {
			return invalid(d.ID, "prerequisite requires name and checkCommand")
		}
	}

	return nil
}

func (d Descriptor) validateDetection() error {
	if !d.Detection.Method.IsValid() {
		return invalid(d.ID, fmt.Sprintf("unknown detection method %q", d.Detection.Method))
	}
	if d.Detection.Target == "" && len(d.Detection.Commands) == 0 {
		return invalid(d.ID, "detection requires a target or a command list")
	}
	if d.Detection.Method == DetectPackageQuery && d.Installation.Type == EcosystemBinary {
		return invalid(d.ID, "package-query detection is not valid for binary tools")
	}
	return nil
}

func (d Descriptor) validateParsing() error {
	if d.Parsing == nil {
		return nil
	}
	switch d.Parsing.Type {
	case ParsingConfigDriven:
		if d.Parsing.Config == nil {
			return invalid(d.ID, "config-driven parsing requires a config block")
		}
		cfg := d.Parsing.Config
		if cfg.DefaultCategory != "" && !cfg.DefaultCategory.IsValid() {
			return invalid(d.ID, fmt.Sprintf("unknown default category %q", cfg.DefaultCategory))
		}
		for token, sev := range cfg.SeverityMap {
			if !sev.IsValid() {
				return invalid(d.ID, fmt.Sprintf("severityMap[%s] maps to unknown severity %q", token, sev))
			}
		}
		for key, cat := range cfg.CategoryMap {
			if !cat.IsValid() {
				return invalid(d.ID, fmt.Sprintf("categoryMap[%s] maps to unknown category %q", key, cat))
			}
		}
	case ParsingCustom:
		if d.Parsing.CustomParser == "" {
			return invalid(d.ID, "custom parsing requires a customParser name")
		}
	default:
		return invalid(d.ID, fmt.Sprintf("unknown parsing type %q", d.Parsing.Type))
	}
	return nil
}

func invalid(id, reason string) error {
	return types.NewError(types.CATALOG_INVALID_TOOL, fmt.Sprintf("tool %q: %s", id, reason))
}
