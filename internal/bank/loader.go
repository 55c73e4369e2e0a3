package bank

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/steveyegge/quizdedup/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed schema/questions.schema.json
var questionsSchema []byte

const questionsSchemaURL = "schema://questions.schema.json"

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

// RecordError reports an invalid record within a bank file
type RecordError struct {
	Path  string
	Index int
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s[%d]: %v", e.Path, e.Index, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// getSchema compiles the embedded bank schema once
func getSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		var parsed any
		if err := json.Unmarshal(questionsSchema, &parsed); err != nil {
			compiledSchemaErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(questionsSchemaURL, parsed); err != nil {
			compiledSchemaErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiledSchema, compiledSchemaErr = c.Compile(questionsSchemaURL)
	})
	return compiledSchema, compiledSchemaErr
}

// ParseQuestions decodes a bank document and builds its questions.
// format is "json" or "yaml"; path is only used in error messages.
func ParseQuestions(path string, data []byte, format string) ([]*types.Question, error) {
	doc, err := toJSON(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var parsed any
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", path, err)
	}
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("compile bank schema: %w", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return nil, fmt.Errorf("%s: schema validation failed: %w", path, err)
	}

	var raws []types.RawQuestion
	if err := json.Unmarshal(doc, &raws); err != nil {
		return nil, fmt.Errorf("%s: decode questions: %w", path, err)
	}

	questions := make([]*types.Question, 0, len(raws))
	for i, raw := range raws {
		q, err := types.NewQuestion(raw)
		if err != nil {
			return nil, &RecordError{Path: path, Index: i, Err: err}
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// LoadFile reads and parses one bank file, choosing the format by extension
func LoadFile(path string) ([]*types.Question, error) {
	format, ok := formatFor(path)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported bank file extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bank file: %w", err)
	}
	return ParseQuestions(path, data, format)
}

// toJSON converts YAML documents to JSON so both formats share one schema
func toJSON(data []byte, format string) ([]byte, error) {
	switch format {
	case "json":
		return data, nil
	case "yaml":
		var doc any
		dec := yaml.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("YAML document cannot be represented as JSON: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func formatFor(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", true
	case ".yaml", ".yml":
		return "yaml", true
	}
	return "", false
}

// ExpandPaths resolves directories to the bank files they contain, sorted by name.
// Plain files are kept in the order given.
func ExpandPaths(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("bank path %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read bank directory: %w", err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, ok := formatFor(e.Name()); ok {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}
