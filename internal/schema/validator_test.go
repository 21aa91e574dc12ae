package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSON_ValidIndex(t *testing.T) {
	v := NewValidator()

	valid := `{
		"collection": "ansible.builtin",
		"modules": [{
			"name": "debug",
			"short_description": "Print statements during execution",
			"description": ["line one", "line two"],
			"options": {
				"msg": {"type": "str", "default": "Hello world!"},
				"verbosity": {"type": "int", "choices": [0, 1, 2]}
			}
		}],
		"routing": {"old_debug": {"redirect": "ansible.builtin.debug"}}
	}`

	result, err := v.ValidateJSON([]byte(valid))
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestValidateJSON_Errors(t *testing.T) {
	tests := []struct {
		name        string
		json        string
		wantMessage string
	}{
		{
			name:        "unknown property",
			json:        `{"collection": "a.b", "modules": [{"name": "m", "invalid_field": 1}]}`,
			wantMessage: "Unknown property 'invalid_field' is not allowed",
		},
		{
			name:        "missing collection",
			json:        `{"modules": []}`,
			wantMessage: "Missing required property 'collection'",
		},
		{
			name:        "wrong type",
			json:        `{"collection": "a.b", "modules": [{"name": "m", "options": {"x": {"required": "yes"}}}]}`,
			wantMessage: "Property 'required' has wrong type (expected boolean)",
		},
		{
			name:        "unknown option type",
			json:        `{"collection": "a.b", "modules": [{"name": "m", "options": {"x": {"type": "string"}}}]}`,
			wantMessage: "Property 'type' must be one of",
		},
		{
			name:        "collection name shape",
			json:        `{"collection": "builtin"}`,
			wantMessage: "Property 'collection' must match",
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateJSON([]byte(tt.json))
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Contains(t, result.Message, tt.wantMessage)
			assert.NotEmpty(t, result.Error())
		})
	}
}

func TestValidateJSON_InvalidJSON(t *testing.T) {
	_, err := NewValidator().ValidateJSON([]byte(`{"collection": `))
	assert.Error(t, err)
}

func TestExtractPropertyFromDescription(t *testing.T) {
	tests := []struct {
		description string
		expected    string
	}{
		{"Additional property invalid_field is not allowed", "invalid_field"},
		{"Additional property some_prop is not allowed", "some_prop"},
		{"Some other error message", ""},
		{"Additional property  is not allowed", ""},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, extractPropertyFromDescription(test.description), test.description)
	}
}

func TestExtractFieldName(t *testing.T) {
	tests := []struct {
		fieldPath string
		expected  string
	}{
		{"modules.0.options.state.type", "type"},
		{"collection", "collection"},
		{"modules.0", "modules"},
		{"0.1", "0.1"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, extractFieldName(test.fieldPath), test.fieldPath)
	}
}
