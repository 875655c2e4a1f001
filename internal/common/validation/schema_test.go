package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyValidator(t *testing.T) {
	v, err := NewClassifyValidator()
	require.NoError(t, err)

	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{"text present", `{"text": "Где мой заказ?"}`, true},
		{"empty text is allowed", `{"text": ""}`, true},
		{"extra fields ignored", `{"text": "hi", "lang": "ru"}`, true},
		{"missing text", `{}`, false},
		{"text not a string", `{"text": 42}`, false},
		{"text null", `{"text": null}`, false},
		{"not an object", `["text"]`, false},
		{"malformed json", `{"text": `, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.ValidateBytes([]byte(tt.body))
			assert.Equal(t, tt.valid, result.Valid, result.Summary())
			if !tt.valid {
				assert.NotEmpty(t, result.Errors)
			}
		})
	}
}

func TestClassifyValidator_MalformedJSONCode(t *testing.T) {
	v, err := NewClassifyValidator()
	require.NoError(t, err)

	result := v.ValidateBytes([]byte(`{`))
	require.False(t, result.Valid)
	assert.Equal(t, "MALFORMED_JSON", result.Errors[0].Code)
}

func TestClassifyValidator_Document(t *testing.T) {
	v, err := NewClassifyValidator()
	require.NoError(t, err)

	assert.True(t, v.ValidateDocument(map[string]interface{}{"text": "привет"}).Valid)
	assert.False(t, v.ValidateDocument(map[string]interface{}{"message": "привет"}).Valid)
}

func TestBatchValidator(t *testing.T) {
	v, err := NewBatchValidator(2)
	require.NoError(t, err)

	assert.True(t, v.ValidateBytes([]byte(`{"texts": ["a", "b"]}`)).Valid)
	assert.False(t, v.ValidateBytes([]byte(`{"texts": []}`)).Valid)
	assert.False(t, v.ValidateBytes([]byte(`{"texts": ["a", "b", "c"]}`)).Valid)
	assert.False(t, v.ValidateBytes([]byte(`{"texts": ["a", 1]}`)).Valid)
	assert.False(t, v.ValidateBytes([]byte(`{"text": "a"}`)).Valid)
}

func TestSummary(t *testing.T) {
	r := &ValidationResult{Errors: []ValidationError{
		{Field: "text", Message: "is required"},
		{Field: "lang", Message: "bad"},
	}}
	assert.Equal(t, "text: is required; lang: bad", r.Summary())
}
