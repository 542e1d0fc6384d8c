package extract

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// FieldType is the expected JSON type of a top-level field.
type FieldType string

const (
	FieldString      FieldType = "string"
	FieldNumber      FieldType = "number"
	FieldBool        FieldType = "boolean"
	FieldObject      FieldType = "object"
	FieldStringArray FieldType = "string_array"
)

// FieldSpec describes one expected top-level field of an extracted object.
type FieldSpec struct {
	Name     string
	Type     FieldType
	Required bool
}

// Shape is the full expected shape of an extracted object.
type Shape []FieldSpec

// schema compiles the shape into a JSON Schema document. Unknown fields are
// permitted: the model is free to emit extras, merging simply ignores them.
func (s Shape) schema() map[string]interface{} {
	properties := make(map[string]interface{}, len(s))
	var required []string

	for _, f := range s {
		var prop map[string]interface{}
		switch f.Type {
		case FieldStringArray:
			prop = map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			}
		case FieldObject:
			prop = map[string]interface{}{"type": "object"}
		default:
			prop = map[string]interface{}{"type": string(f.Type)}
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ValidateShape checks obj against the expected shape and returns every
// violation together rather than stopping at the first, so callers can
// present a complete diagnostic. A nil return means the object is valid.
func ValidateShape(obj map[string]interface{}, shape Shape) []string {
	schemaLoader := gojsonschema.NewGoLoader(shape.schema())
	documentLoader := gojsonschema.NewGoLoader(obj)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return []string{fmt.Sprintf("shape validation could not run: %v", err)}
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		violations = append(violations, verr.String())
	}
	return violations
}
