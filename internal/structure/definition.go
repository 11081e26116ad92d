package structure

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/desertthunder/listkit/internal/models"
	"github.com/desertthunder/listkit/internal/shared"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ErrorCode classifies a rejected definition document.
type ErrorCode string

const (
	CodeInvalidJSON      ErrorCode = "INVALID_JSON"
	CodeInvalidYAML      ErrorCode = "INVALID_YAML"
	CodeMissingField     ErrorCode = "MISSING_FIELD"
	CodeInvalidVersion   ErrorCode = "INVALID_VERSION"
	CodeInvalidName      ErrorCode = "INVALID_NAME"
	CodeInvalidProvider  ErrorCode = "INVALID_PROVIDER"
	CodeInvalidUserID    ErrorCode = "INVALID_USER_ID"
	CodeInvalidPlaylists ErrorCode = "INVALID_PLAYLISTS"
	CodeDependencyCycle  ErrorCode = "DEPENDENCY_CYCLE"
	CodeInvalidStructure ErrorCode = "INVALID_STRUCTURE"
)

// DefinitionError is returned for any definition that must not be synced.
// It is never retried and is always reported before a provider is contacted.
type DefinitionError struct {
	Code  ErrorCode
	Field string
	Msg   string
	Err   error
}

func (e *DefinitionError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Field != "" {
		b.WriteString(" (" + e.Field + ")")
	}
	if e.Msg != "" {
		b.WriteString(": " + e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *DefinitionError) Unwrap() error { return e.Err }

// Is matches [shared.ErrInvalidInput] so callers can treat every definition error as bad input.
func (e *DefinitionError) Is(target error) bool { return target == shared.ErrInvalidInput }

// AsDefinitionError extracts a [*DefinitionError] from err's chain.
func AsDefinitionError(err error) (*DefinitionError, bool) {
	var de *DefinitionError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// field describes one top-level key and the error code for a bad value.
type field struct {
	key  string
	code ErrorCode
}

var requiredFields = []field{
	{"version", CodeInvalidVersion},
	{"name", CodeInvalidName},
	{"provider", CodeInvalidProvider},
	{"user_id", CodeInvalidUserID},
	{"playlists", CodeInvalidPlaylists},
}

// fieldCodes maps validator struct fields to document keys.
var fieldCodes = map[string]field{
	"Version":   requiredFields[0],
	"Name":      requiredFields[1],
	"Provider":  requiredFields[2],
	"UserID":    requiredFields[3],
	"Playlists": requiredFields[4],
}

var validate = newValidator()

// newValidator reports field paths using document keys rather than Go field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseDefinition decodes a JSON definition document.
//
// Checks run in order and stop at the first failure: syntax, presence of every
// top-level key, value types, value constraints, then the graph checks of [Validate].
func ParseDefinition(data []byte) (*models.StructuredPlaylistsDefinition, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &DefinitionError{Code: CodeInvalidJSON, Err: err}
	}
	if raw == nil {
		return nil, &DefinitionError{Code: CodeInvalidJSON, Msg: "document must be an object"}
	}

	for _, f := range requiredFields {
		v, ok := raw[f.key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, &DefinitionError{Code: CodeMissingField, Field: f.key, Msg: "field is required"}
		}
	}

	def := &models.StructuredPlaylistsDefinition{}
	targets := map[string]any{
		"version":   &def.Version,
		"name":      &def.Name,
		"provider":  &def.Provider,
		"user_id":   &def.UserID,
		"playlists": &def.Playlists,
	}
	for _, f := range requiredFields {
		if err := strictUnmarshal(raw[f.key], targets[f.key]); err != nil {
			return nil, &DefinitionError{Code: f.code, Field: f.key, Msg: "wrong type", Err: err}
		}
	}

	if err := validate.Struct(def); err != nil {
		return nil, fromValidation(err)
	}

	if err := Validate(def); err != nil {
		return nil, err
	}
	return def, nil
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func fromValidation(err error) *DefinitionError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return &DefinitionError{Code: CodeInvalidPlaylists, Err: err}
	}

	fe := errs[0]
	ns := fe.StructNamespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		ns = rest
	}
	top, _, _ := strings.Cut(ns, ".")
	top, _, _ = strings.Cut(top, "[")

	f, ok := fieldCodes[top]
	if !ok {
		f = field{key: top, code: CodeInvalidPlaylists}
	}

	path := f.key
	if top == "Playlists" {
		path = fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
	}
	return &DefinitionError{
		Code:  f.code,
		Field: path,
		Msg:   fmt.Sprintf("failed %q constraint", fe.Tag()),
	}
}

// ParseDefinitionYAML decodes a YAML definition and applies the same checks as [ParseDefinition].
func ParseDefinitionYAML(data []byte) (*models.StructuredPlaylistsDefinition, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &DefinitionError{Code: CodeInvalidYAML, Err: err}
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, &DefinitionError{Code: CodeInvalidYAML, Msg: "document must be a mapping"}
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, &DefinitionError{Code: CodeInvalidYAML, Err: err}
	}
	return ParseDefinition(normalized)
}

// LoadDefinition reads a definition file, choosing the decoder by extension.
// .yaml and .yml are YAML; anything else is JSON.
func LoadDefinition(path string) (*models.StructuredPlaylistsDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseDefinitionYAML(data)
	default:
		return ParseDefinition(data)
	}
}
