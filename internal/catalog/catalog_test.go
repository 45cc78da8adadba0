package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climateandtech/carbonara-sub002/internal/types"
)

func TestLoadDefault(t *testing.T) {
	cat, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, 6, cat.Len())
	assert.True(t, cat.Has("eslint-ecocode"))
	assert.True(t, cat.Has("ecocode-semgrep"))
	assert.True(t, cat.Has("sonar-scanner"))
	assert.True(t, cat.Has("greenframe"))
	assert.True(t, cat.Has("lighthouse"))
	assert.True(t, cat.Has("project-stats"))
}

func TestLoadDefault_DescriptorShapes(t *testing.T) {
	cat, err := LoadDefault()
	require.NoError(t, err)

	eslint, err := cat.Get("eslint-ecocode")
	require.NoError(t, err)
	assert.Equal(t, EcosystemJSPackage, eslint.Installation.Type)
	assert.Equal(t, "eslint", eslint.Installation.Package)
	assert.NotNil(t, eslint.ManifestTemplate)
	require.NotNil(t, eslint.Parsing)
	assert.Equal(t, ParsingCustom, eslint.Parsing.Type)
	assert.Equal(t, "eslint", eslint.Parsing.CustomParser)

	semgrep, err := cat.Get("ecocode-semgrep")
	require.NoError(t, err)
	assert.Equal(t, EcosystemPythonPackage, semgrep.Installation.Type)
	require.NotNil(t, semgrep.Parsing)
	require.NotNil(t, semgrep.Parsing.Config)
	assert.Equal(t, "results", semgrep.Parsing.Config.FindingsPath)

	greenframe, err := cat.Get("greenframe")
	require.NoError(t, err)
	require.Len(t, greenframe.Prerequisites, 1)
	assert.Equal(t, "Docker", greenframe.Prerequisites[0].Name)
}

func TestCatalog_Get_Unknown(t *testing.T) {
	cat, err := LoadDefault()
	require.NoError(t, err)

	_, err = cat.Get("nope")
	assert.ErrorIs(t, err, types.NewError(types.TOOL_NOT_FOUND, ""))
}

func TestCatalog_List_Sorted(t *testing.T) {
	cat, err := LoadDefault()
	require.NoError(t, err)

	ids := cat.IDs()
	require.NotEmpty(t, ids)
	for i := 1; i < len(ids); i++ {
		assert.Less(t, ids[i-1], ids[i])
	}
	assert.Len(t, cat.List(), len(ids))
}

func TestParse_InvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "not yaml",
			doc:  "{{{{",
		},
		{
			name: "no tools",
			doc:  "tools: []",
		},
		{
			name: "missing id",
			doc: `
tools:
  - name: anonymous
    installation: {type: binary, command: "true"}
    detection: {method: command-probe, target: "true"}
    command: {executable: x}
`,
		},
		{
			name: "unknown ecosystem",
			doc: `
tools:
  - id: t
    name: t
    installation: {type: rubygem, package: x}
    detection: {method: command-probe, target: "x --version"}
    command: {executable: x}
`,
		},
		{
			name: "package tool without package",
			doc: `
tools:
  - id: t
    name: t
    installation: {type: js-package}
    detection: {method: package-query, target: x}
    command: {executable: x}
`,
		},
		{
			name: "detection without target or commands",
			doc: `
tools:
  - id: t
    name: t
    installation: {type: binary, command: "install t"}
    detection: {method: command-probe}
    command: {executable: t}
`,
		},
		{
			name: "custom parsing without parser name",
			doc: `
tools:
  - id: t
    name: t
    installation: {type: binary, command: "install t"}
    detection: {method: command-probe, target: "t --version"}
    command: {executable: t}
    parsing: {type: custom}
`,
		},
		{
			name: "severity map with unknown severity",
			doc: `
tools:
  - id: t
    name: t
    installation: {type: binary, command: "install t"}
    detection: {method: command-probe, target: "t --version"}
    command: {executable: t}
    parsing:
      type: config-driven
      config:
        findingsPath: issues
        severityMap: {MAJOR: gigantic}
`,
		},
		{
			name: "duplicate ids",
			doc: `
tools:
  - id: t
    name: t
    installation: {type: binary, command: "install t"}
    detection: {method: command-probe, target: "t --version"}
    command: {executable: t}
  - id: t
    name: t again
    installation: {type: binary, command: "install t"}
    detection: {method: command-probe, target: "t --version"}
    command: {executable: t}
`,
		},
		{
			name: "unknown field",
			doc: `
tools:
  - id: t
    name: t
    surprise: true
    installation: {type: binary, command: "install t"}
    detection: {method: command-probe, target: "t --version"}
    command: {executable: t}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParse_ValidMinimal(t *testing.T) {
	doc := `
tools:
  - id: mytool
    name: My Tool
    installation:
      type: binary
      command: "curl -sSL https://example.com/install.sh | sh"
    detection:
      method: command-probe
      target: "mytool --version"
      successPattern: "mytool v"
    command:
      executable: mytool
      args: ["scan", "{target}"]
      outputFormat: json
`
	cat, err := Parse([]byte(doc))
	require.NoError(t, err)

	d, err := cat.Get("mytool")
	require.NoError(t, err)
	assert.Equal(t, "mytool v", d.Detection.SuccessPattern)
	assert.Equal(t, FormatJSON, d.Command.OutputFormat)
}
