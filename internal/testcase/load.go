package testcase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when decoded test cases fail validation.
var ErrInvalid = errors.New("invalid test cases")

// Format selects the input encoding.
type Format string

// Supported input formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf infers the input format from a file extension. Unknown
// extensions are treated as JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

var (
	validate = validator.New()

	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func inputSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(Schema))
		if err != nil {
			schemaErr = fmt.Errorf("parsing input schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("test-cases.schema.json", doc); err != nil {
			schemaErr = fmt.Errorf("adding input schema: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile("test-cases.schema.json")
	})
	return compiledSchema, schemaErr
}

// LoadFile reads test cases from path, choosing the decoder by
// extension.
func LoadFile(path string) ([]TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading test cases: %w", err)
	}
	cases, err := Decode(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// Decode parses and validates a list of test cases. JSON input is
// checked against Schema before decoding; both formats are then
// checked field by field.
func Decode(data []byte, format Format) ([]TestCase, error) {
	var cases []TestCase
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cases); err != nil {
			return nil, fmt.Errorf("decoding YAML: %w", err)
		}
	case FormatJSON:
		sch, err := inputSchema()
		if err != nil {
			return nil, err
		}
		inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
		if err := sch.Validate(inst); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if err := json.Unmarshal(data, &cases); err != nil {
			return nil, fmt.Errorf("decoding JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	for i := range cases {
		if err := validate.Struct(cases[i]); err != nil {
			return nil, fmt.Errorf("%w: test case %d: %v", ErrInvalid, i, err)
		}
		if err := checkAllocations(cases[i].InputValues); err != nil {
			return nil, fmt.Errorf("%w: test case %d: %v", ErrInvalid, i, err)
		}
	}
	return cases, nil
}

// checkAllocations rejects values that start an allocation token but
// do not parse as one, e.g. "<<malloc 0>>" or "<<malloc two>>".
func checkAllocations(values []ValueMapping) error {
	for _, v := range values {
		if !strings.HasPrefix(v.Value, mallocPrefix) {
			continue
		}
		if _, ok := ParseMalloc(v.Value); !ok {
			return fmt.Errorf("%s: malformed allocation %q", v.Identifier, v.Value)
		}
	}
	return nil
}

// WriteJSON encodes cases as indented JSON, the format Decode reads.
func WriteJSON(w io.Writer, cases []TestCase) error {
	if cases == nil {
		cases = []TestCase{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cases)
}
