package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/climateandtech/carbonara-sub002/internal/types"
)

//go:embed descriptors.yaml
var defaultDescriptors []byte

// catalogFile is the on-disk shape of a catalog document.
type catalogFile struct {
	Tools []map[string]any `yaml:"tools"`
}

// Load reads and validates a catalog document from the given path. Any
// descriptor violating its variant schema fails the whole load.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.CATALOG_LOAD_FAILED, fmt.Sprintf("cannot read catalog %s", path), err)
	}
	return Parse(data)
}

// LoadDefault builds the catalog from the embedded descriptor set.
func LoadDefault() (*Catalog, error) {
	return Parse(defaultDescriptors)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, types.WrapError(types.CATALOG_LOAD_FAILED, "cannot parse catalog document", err)
	}
	if len(file.Tools) == 0 {
		return nil, types.NewError(types.CATALOG_LOAD_FAILED, "catalog document declares no tools")
	}

	descriptors := make([]Descriptor, 0, len(file.Tools))
	seen := make(map[string]struct{}, len(file.Tools))

	for i, raw := range file.Tools {
		var desc Descriptor
		if err := decodeDescriptor(raw, &desc); err != nil {
			return nil, types.WrapError(types.CATALOG_INVALID_TOOL, fmt.Sprintf("tool at index %d", i), err)
		}
		if err := desc.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[desc.ID]; dup {
			return nil, types.NewError(types.CATALOG_INVALID_TOOL, fmt.Sprintf("duplicate tool id %q", desc.ID))
		}
		seen[desc.ID] = struct{}{}
		descriptors = append(descriptors, desc)
	}

	return newCatalog(descriptors), nil
}

// decodeDescriptor maps a loosely typed document entry onto the typed
// descriptor struct, rejecting unknown keys so schema drift surfaces at load.
func decodeDescriptor(raw map[string]any, out *Descriptor) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}
