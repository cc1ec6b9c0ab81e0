package capture

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/pnginfo/pkg/pnginfo/meta"
)

// Sentinel errors for extension loading.
var (
	// ErrUnknownField indicates an extension names a field that does not exist.
	ErrUnknownField = errors.New("unknown field")

	// ErrUnknownFormatter indicates an extension names an unregistered formatter.
	ErrUnknownFormatter = errors.New("unknown formatter")

	// ErrUnknownValidator indicates an extension names an unregistered validator.
	ErrUnknownValidator = errors.New("unknown validator")

	// ErrNoSource indicates a rule has neither an input nor a value.
	ErrNoSource = errors.New("rule needs input or value")
)

// ExtensionError locates a bad rule in an extension document.
type ExtensionError struct {
	// Node is the node type being defined.
	Node string
	// Field is the field name as written in the document.
	Field string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ExtensionError) Error() string {
	return fmt.Sprintf("extension %s.%s: %v", e.Node, e.Field, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ExtensionError) Unwrap() error {
	return e.Err
}

// Functions names the formatters and validators extension documents may
// reference.
type Functions struct {
	Formats    map[string]FormatFunc
	Validators map[string]ValidateFunc
}

type extensionDoc struct {
	Nodes map[string][]extensionRule `yaml:"nodes"`
}

type extensionRule struct {
	Field    string `yaml:"field"`
	Input    string `yaml:"input"`
	Value    any    `yaml:"value"`
	Format   string `yaml:"format"`
	Validate string `yaml:"validate"`
}

// LoadExtensions parses a YAML extension document and registers its node
// types, replacing existing entries of the same name. Nothing is registered
// if any rule is invalid.
//
//	nodes:
//	  MyCheckpointLoader:
//	    - field: MODEL_HASH
//	      input: ckpt
//	      format: model_hash
func (r *Registry) LoadExtensions(data []byte, fns Functions) error {
	var doc extensionDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse extensions: %w", err)
	}

	nodeTypes := make([]string, 0, len(doc.Nodes))
	for t := range doc.Nodes {
		nodeTypes = append(nodeTypes, t)
	}
	sort.Strings(nodeTypes)

	built := make(map[string][]Rule, len(nodeTypes))
	for _, t := range nodeTypes {
		for _, er := range doc.Nodes[t] {
			rule, err := er.build(fns)
			if err != nil {
				return &ExtensionError{Node: t, Field: er.Field, Err: err}
			}
			built[t] = append(built[t], rule)
		}
	}

	return r.registerAll(nodeTypes, built)
}

// LoadExtensionFile reads and registers an extension document from disk.
func (r *Registry) LoadExtensionFile(path string, fns Functions) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read extension file: %w", err)
	}
	return r.LoadExtensions(data, fns)
}

func (er extensionRule) build(fns Functions) (Rule, error) {
	field, ok := meta.ParseField(er.Field)
	if !ok {
		return nil, ErrUnknownField
	}
	if er.Input == "" {
		if er.Value == nil {
			return nil, ErrNoSource
		}
		return Literal(field, er.Value), nil
	}

	var opts []RuleOption
	if er.Format != "" {
		f, ok := fns.Formats[er.Format]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownFormatter, er.Format)
		}
		opts = append(opts, WithFormat(f))
	}
	if er.Validate != "" {
		v, ok := fns.Validators[er.Validate]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnknownValidator, er.Validate)
		}
		opts = append(opts, WithValidate(v))
	}
	return Bind(field, er.Input, opts...), nil
}
