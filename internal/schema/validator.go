package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/xeipuuv/gojsonschema"
)

// indexSchema describes a module documentation index file.
//
//go:embed index.schema.json
var indexSchema []byte

type Validator struct {
	mu     sync.RWMutex
	schema *gojsonschema.Schema
}

func NewValidator() *Validator {
	return &Validator{}
}

// SchemaData returns the raw JSON schema for index files.
func (v *Validator) SchemaData() []byte {
	return indexSchema
}

func (v *Validator) compiled() (*gojsonschema.Schema, error) {
	v.mu.RLock()
	if v.schema != nil {
		defer v.mu.RUnlock()
		return v.schema, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.schema != nil {
		return v.schema, nil
	}

	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(indexSchema))
	if err != nil {
		return nil, errors.Wrap(err, "failed to compile index schema")
	}
	v.schema = s
	return s, nil
}

type ValidationError struct {
	Message string
	Path    string
}

func (e *ValidationError) Error() string {
	if e.Path == "" || e.Path == "(root)" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidateJSON checks an index document against the schema. The returned
// error is non-nil only when validation could not run at all.
func (v *Validator) ValidateJSON(jsonData []byte) (*ValidationError, error) {
	s, err := v.compiled()
	if err != nil {
		return nil, err
	}

	result, err := s.Validate(gojsonschema.NewBytesLoader(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "validation failed")
	}

	if !result.Valid() && len(result.Errors()) > 0 {
		// Prefer the most specific error over generic oneOf/anyOf noise
		bestError := result.Errors()[0]

		errorPriority := map[string]int{
			"additional_property_not_allowed": 1,
			"required":                        2,
			"invalid_type":                    3,
			"enum":                            4,
			"pattern":                         5,
			"string_gte":                      6,
			"array_min_items":                 7,
		}

		highestPriority := 999
		for _, err := range result.Errors() {
			if priority, exists := errorPriority[err.Type()]; exists && priority < highestPriority {
				bestError = err
				highestPriority = priority
			}
		}

		return &ValidationError{
			Message: friendlyErrorMessage(bestError),
			Path:    bestError.Field(),
		}, nil
	}

	return nil, nil
}

func friendlyErrorMessage(err gojsonschema.ResultError) string {
	switch err.Type() {
	case "additional_property_not_allowed":
		if propertyName := extractPropertyFromDescription(err.Description()); propertyName != "" {
			return fmt.Sprintf("Unknown property '%s' is not allowed", propertyName)
		}
		return err.Description()
	case "required":
		if property, ok := err.Details()["property"]; ok {
			return fmt.Sprintf("Missing required property '%v'", property)
		}
		return fmt.Sprintf("Missing required property '%s'", err.Field())
	case "invalid_type":
		return fmt.Sprintf("Property '%s' has wrong type (expected %s)", extractFieldName(err.Field()), err.Details()["expected"])
	case "enum":
		return fmt.Sprintf("Property '%s' must be one of: %v", extractFieldName(err.Field()), err.Details()["allowed"])
	case "pattern":
		return fmt.Sprintf("Property '%s' must match %v", extractFieldName(err.Field()), err.Details()["pattern"])
	case "string_gte":
		return fmt.Sprintf("Property '%s' is too short (minimum %v characters)", extractFieldName(err.Field()), err.Details()["min"])
	default:
		return err.Description()
	}
}

// extractFieldName returns the last non-index segment of a field path,
// e.g. "modules.0.options.state.type" -> "type".
func extractFieldName(fieldPath string) string {
	parts := strings.Split(fieldPath, ".")
	for i := len(parts) - 1; i >= 0; i-- {
		if !isNumeric(parts[i]) {
			return parts[i]
		}
	}
	return fieldPath
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, char := range s {
		if char < '0' || char > '9' {
			return false
		}
	}
	return true
}

func extractPropertyFromDescription(description string) string {
	const prefix, suffix = "Additional property ", " is not allowed"
	start := strings.Index(description, prefix)
	end := strings.Index(description, suffix)
	if start < 0 || end < 0 {
		return ""
	}
	start += len(prefix)
	if start >= end {
		return ""
	}
	return description[start:end]
}
