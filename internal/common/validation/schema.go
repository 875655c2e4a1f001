package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ClassifyRequestSchema describes the body of POST /classify and the
// variables of a classify-message job. Unknown fields are ignored.
const ClassifyRequestSchema = `{
  "type": "object",
  "properties": {
    "text": {"type": "string"}
  },
  "required": ["text"]
}`

// BatchRequestSchemaTemplate describes POST /classify/batch; %d is the batch limit.
const BatchRequestSchemaTemplate = `{
  "type": "object",
  "properties": {
    "texts": {
      "type": "array",
      "items": {"type": "string"},
      "minItems": 1,
      "maxItems": %d
    }
  },
  "required": ["texts"]
}`

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Summary joins the errors into one line for error responses.
func (r *ValidationResult) Summary() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = e.Field + ": " + e.Message
	}
	return strings.Join(parts, "; ")
}

// Validator checks documents against a compiled JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles schema once so request handling does not re-parse it.
func NewValidator(schema string) (*Validator, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// NewClassifyValidator returns the validator for single-text requests.
func NewClassifyValidator() (*Validator, error) {
	return NewValidator(ClassifyRequestSchema)
}

// NewBatchValidator returns the validator for batch requests of at most maxItems texts.
func NewBatchValidator(maxItems int) (*Validator, error) {
	return NewValidator(fmt.Sprintf(BatchRequestSchemaTemplate, maxItems))
}

// ValidateBytes validates a raw JSON document. Malformed JSON is reported as
// a validation failure rather than an error.
func (v *Validator) ValidateBytes(doc []byte) *ValidationResult {
	return v.validate(gojsonschema.NewBytesLoader(doc))
}

// ValidateDocument validates an already decoded value, e.g. job variables.
func (v *Validator) ValidateDocument(doc interface{}) *ValidationResult {
	return v.validate(gojsonschema.NewGoLoader(doc))
}

func (v *Validator) validate(loader gojsonschema.JSONLoader) *ValidationResult {
	result, err := v.schema.Validate(loader)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: "body is not valid JSON",
				Code:    "MALFORMED_JSON",
			}},
		}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true}
	}

	errs := make([]ValidationError, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		}
	}
	return &ValidationResult{Valid: false, Errors: errs}
}
