package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climateandtech/carbonara-sub002/internal/catalog"
	"github.com/climateandtech/carbonara-sub002/internal/types"
)

func TestInstantiate_FullTokenPreservesType(t *testing.T) {
	template := map[string]any{
		"config": map[string]any{
			"flag":  "{scrollToBottom}",
			"depth": "{maxDepth}",
			"name":  "{profile}",
		},
	}

	result := Instantiate(template, map[string]any{
		"scrollToBottom": false,
		"maxDepth":       3,
		"profile":        "mobile",
	})

	config := result.(map[string]any)["config"].(map[string]any)
	flag, ok := config["flag"].(bool)
	require.True(t, ok, "boolean placeholder must yield a literal boolean")
	assert.False(t, flag)

	depth, ok := config["depth"].(int)
	require.True(t, ok, "numeric placeholder must yield a literal number")
	assert.Equal(t, 3, depth)

	assert.Equal(t, "mobile", config["name"])
}

func TestInstantiate_EmbeddedTokenStringifies(t *testing.T) {
	template := map[string]any{
		"banner": "cache={useCache} depth={maxDepth}",
	}

	result := Instantiate(template, map[string]any{
		"useCache": true,
		"maxDepth": 2.5,
	})

	assert.Equal(t, "cache=true depth=2.5", result.(map[string]any)["banner"])
}

func TestInstantiate_ArraysAndUnresolved(t *testing.T) {
	template := []any{"{known}", "{unknown}", 42, true}

	result := Instantiate(template, map[string]any{"known": "yes"}).([]any)

	assert.Equal(t, "yes", result[0])
	assert.Equal(t, "{unknown}", result[1], "unresolved placeholders stay in place")
	assert.Equal(t, 42, result[2])
	assert.Equal(t, true, result[3])
}

func TestInstantiate_DoesNotMutateTemplate(t *testing.T) {
	template := map[string]any{"v": "{x}"}
	Instantiate(template, map[string]any{"x": 1})
	assert.Equal(t, "{x}", template["v"])
}

func TestInstantiateArgs(t *testing.T) {
	args := InstantiateArgs(
		[]string{"scan", "--json", "--config", "{rulesDir}", "--cache={useCache}", "{target}"},
		map[string]any{"rulesDir": "/rules", "useCache": false, "target": "./src"},
	)

	assert.Equal(t, []string{"scan", "--json", "--config", "/rules", "--cache=false", "./src"}, args)
}

func TestValidateRequired(t *testing.T) {
	params := []catalog.Parameter{
		{Name: "target", Required: true, Type: "string"},
		{Name: "maxWarnings", Required: false, Type: "number"},
	}

	resolved := Instantiate(map[string]any{"t": "{target}", "w": "{maxWarnings}"}, nil)
	err := ValidateRequired(params, resolved)
	require.Error(t, err)
	assert.Equal(t, types.MANIFEST_MISSING_PARAMETER, types.CodeOf(err))

	resolved = Instantiate(map[string]any{"t": "{target}", "w": "{maxWarnings}"}, map[string]any{"target": "."})
	assert.NoError(t, ValidateRequired(params, resolved), "optional parameters may stay unresolved")
}

func TestValidateRequiredArgs(t *testing.T) {
	params := []catalog.Parameter{{Name: "url", Required: true}}

	assert.Error(t, ValidateRequiredArgs(params, []string{"{url}", "--quiet"}))
	assert.NoError(t, ValidateRequiredArgs(params, []string{"https://example.com", "--quiet"}))
}

func TestExtractPluginPackages(t *testing.T) {
	template := map[string]any{
		"plugins": []any{"@scope/pkg", "@scope/pkg", "@scope/other"},
		"extends": "./local",
		"nested": map[string]any{
			"more":    []any{"@creedengo/eslint-plugin", "plain-name", "../relative"},
			"version": "1.2.3",
		},
	}

	packages := ExtractPluginPackages(template)

	assert.ElementsMatch(t, []string{"@scope/pkg", "@scope/other", "@creedengo/eslint-plugin"}, packages)
	assert.Len(t, packages, 3, "extraction must deduplicate")
}

func TestExtractPluginPackages_ScopeFiltering(t *testing.T) {
	tests := []struct {
		value  string
		scoped bool
	}{
		{"@scope/pkg", true},
		{"@scope/deep/path", true},
		{"@/pkg", false},
		{"@scope/", false},
		{"@scope", false},
		{"plain", false},
		{"./local", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got := ExtractPluginPackages([]any{tt.value})
			if tt.scoped {
				assert.Equal(t, []string{tt.value}, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestExtractPluginPackages_FirstSeenOrder(t *testing.T) {
	template := []any{"@b/second", "@a/first", "@b/second"}
	assert.Equal(t, []string{"@b/second", "@a/first"}, ExtractPluginPackages(template))
}

func TestExtractPluginPackages_StableAcrossMapSiblings(t *testing.T) {
	template := map[string]any{
		"settings": map[string]any{"import/resolver": "@zeta/resolver"},
		"plugins":  []any{"@mid/plugin"},
		"extends":  "@alpha/config/recommended",
	}

	want := []string{"@alpha/config/recommended", "@mid/plugin", "@zeta/resolver"}
	for i := 0; i < 20; i++ {
		assert.Equal(t, want, ExtractPluginPackages(template))
	}
}
