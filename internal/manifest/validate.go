package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

const schemaURL = "manifest.schema.json"

//go:embed schema/manifest.schema.json
var schemaBytes []byte

var (
	manifestSchema = sync.OnceValues(compileSchema)
	printer        = message.NewPrinter(language.English)
)

// Issue is a single schema violation.
type Issue struct {
	Path    string // instance location, e.g. "/artifacts/0/kind"
	Message string
}

// ValidationError lists the schema violations of a manifest.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		if issue.Path == "" {
			msgs[i] = issue.Message
			continue
		}
		msgs[i] = issue.Path + ": " + issue.Message
	}
	return "invalid manifest: " + strings.Join(msgs, "; ")
}

// compileSchema compiles the embedded manifest schema.
func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return nil, fmt.Errorf("manifest schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("manifest schema: %w", err)
	}
	sch, err := c.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("manifest schema: %w", err)
	}
	return sch, nil
}

// Validate checks raw YAML against the manifest schema. Violations are
// reported as a *ValidationError.
func Validate(data []byte) error {
	sch, err := manifestSchema()
	if err != nil {
		return err
	}
	inst, err := instance(data)
	if err != nil {
		return err
	}

	err = sch.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var issues []Issue
	collectIssues(ve, &issues)
	if len(issues) == 0 {
		issues = []Issue{{Message: ve.Error()}}
	}
	return &ValidationError{Issues: issues}
}

// instance decodes YAML into the JSON value model the validator works on.
func instance(data []byte) (any, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	js, err := json.Marshal(normalize(raw))
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(js))
}

func collectIssues(ve *jsonschema.ValidationError, issues *[]Issue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(cause, issues)
		}
		return
	}
	if ve.ErrorKind == nil {
		return
	}
	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	issue := Issue{Path: path, Message: ve.ErrorKind.LocalizedString(printer)}
	for _, seen := range *issues {
		if seen == issue {
			return
		}
	}
	*issues = append(*issues, issue)
}

// normalize turns YAML-decoded values into types encoding/json accepts.
// An empty document decodes to nil and is reported by the schema.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[k] = normalize(v)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = normalize(v)
		}
		return m
	case []any:
		a := make([]any, len(val))
		for i, v := range val {
			a[i] = normalize(v)
		}
		return a
	default:
		return val
	}
}
