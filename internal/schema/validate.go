// Package schema validates raw chat message payloads before they are posted.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// Result is the outcome of validating one payload.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator checks JSON payloads against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
	doc    map[string]any
}

// NewMessageValidator builds a validator for client.Message payloads. The
// schema is reflected from the Go type, so it tracks the struct's fields.
// Unknown fields are rejected; attachments may be omitted.
func NewMessageValidator() (*Validator, error) {
	r := &invopop.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(&client.Message{})
	s.Required = slices.DeleteFunc(s.Required, func(name string) bool { return name == "attachments" })
	return compile("message.json", s)
}

func compile(name string, s *invopop.Schema) (*Validator, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	return &Validator{schema: compiled, doc: doc}, nil
}

// Validate checks raw JSON bytes.
func (v *Validator) Validate(data []byte) *Result {
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &Result{Errors: []string{fmt.Sprintf("invalid JSON: %s", err)}}
	}
	return v.ValidateValue(value)
}

// ValidateValue checks an already-decoded JSON value.
func (v *Validator) ValidateValue(value any) *Result {
	err := v.schema.Validate(value)
	if err == nil {
		return &Result{Valid: true}
	}
	return &Result{Errors: extractValidationErrors(err)}
}

// Schema returns the JSON Schema document as a plain map.
func (v *Validator) Schema() map[string]any {
	return v.doc
}

// DecodeMessage validates data and decodes it into a client.Message.
// The returned Result is non-nil only when validation failed.
func (v *Validator) DecodeMessage(data []byte) (*client.Message, *Result) {
	if res := v.Validate(data); !res.Valid {
		return nil, res
	}
	var msg client.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &Result{Errors: []string{err.Error()}}
	}
	return &msg, nil
}

func extractValidationErrors(err error) []string {
	var validationErr *jsonschema.ValidationError
	if !errors.As(err, &validationErr) {
		return []string{err.Error()}
	}

	byPath := make(map[string][]string)
	collectErrors(validationErr, byPath)

	var out []string
	for path, msgs := range byPath {
		seen := make(map[string]bool)
		for _, msg := range msgs {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if path != "" {
				out = append(out, fmt.Sprintf("%s: %s", path, msg))
			} else {
				out = append(out, msg)
			}
		}
	}
	sort.Strings(out)
	return out
}

var printer = message.NewPrinter(language.English)

// collectErrors gathers leaf errors keyed by instance path.
func collectErrors(err *jsonschema.ValidationError, byPath map[string][]string) {
	path := ""
	if len(err.InstanceLocation) > 0 {
		path = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		msg := err.ErrorKind.LocalizedString(printer)
		if !strings.HasPrefix(msg, "$ref ") && !strings.HasPrefix(msg, "doesn't validate with") {
			byPath[path] = append(byPath[path], msg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, byPath)
	}
}
