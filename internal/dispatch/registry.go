package dispatch

import (
	"context"
	"strconv"

	"github.com/tabulario/datalens/internal/domain/errs"
)

// ArgType classifies an operation argument for schema validation.
type ArgType string

const (
	ArgString  ArgType = "string"
	ArgNumber  ArgType = "number"
	ArgBoolean ArgType = "boolean"
	ArgList    ArgType = "list"
	ArgObject  ArgType = "object"
)

// ArgSpec describes one argument of an operation.
type ArgSpec struct {
	Name        string  `json:"name"`
	Type        ArgType `json:"type"`
	Required    bool    `json:"required"`
	Description string  `json:"description"`
}

// Handler executes one operation against already-validated arguments.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Operation pairs an argument schema with its handler.
type Operation struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Args        []ArgSpec `json:"args"`
	handler     Handler
}

// Registry is the process-wide operation catalog. It is populated
// once at startup and read-only afterwards, so concurrent dispatch
// needs no locking.
type Registry struct {
	ops   map[string]*Operation
	order []string
}

func newRegistry() *Registry {
	return &Registry{ops: make(map[string]*Operation)}
}

func (r *Registry) register(op Operation) {
	r.ops[op.Name] = &op
	r.order = append(r.order, op.Name)
}

// Lookup finds a registered operation by name.
func (r *Registry) Lookup(name string) (*Operation, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Catalog returns operation metadata in registration order. Callers
// use it for tool listings and the natural-language prompt.
func (r *Registry) Catalog() []Operation {
	catalog := make([]Operation, 0, len(r.order))
	for _, name := range r.order {
		catalog = append(catalog, *r.ops[name])
	}
	return catalog
}

// validateArgs checks presence and coerces types against the schema.
// It runs before the handler; failures never reach the handler.
func validateArgs(op *Operation, args map[string]any) (map[string]any, error) {
	validated := make(map[string]any, len(args))
	known := make(map[string]bool, len(op.Args))

	for _, spec := range op.Args {
		known[spec.Name] = true
		raw, present := args[spec.Name]
		if !present || raw == nil {
			if spec.Required {
				return nil, errs.NewInvalidArguments("%s: missing required argument %q", op.Name, spec.Name).
					With("argument", spec.Name)
			}
			continue
		}
		coerced, ok := coerceArg(raw, spec.Type)
		if !ok {
			return nil, errs.NewInvalidArguments("%s: argument %q must be %s, got %T",
				op.Name, spec.Name, spec.Type, raw).With("argument", spec.Name)
		}
		validated[spec.Name] = coerced
	}

	for name := range args {
		if !known[name] {
			return nil, errs.NewInvalidArguments("%s: unexpected argument %q", op.Name, name).
				With("argument", name)
		}
	}
	return validated, nil
}

func coerceArg(raw any, argType ArgType) (any, bool) {
	switch argType {
	case ArgString:
		s, ok := raw.(string)
		return s, ok
	case ArgNumber:
		switch v := raw.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			f, err := strconv.ParseFloat(v, 64)
			return f, err == nil
		}
		return nil, false
	case ArgBoolean:
		switch v := raw.(type) {
		case bool:
			return v, true
		case string:
			b, err := strconv.ParseBool(v)
			return b, err == nil
		}
		return nil, false
	case ArgList:
		l, ok := raw.([]any)
		return l, ok
	case ArgObject:
		m, ok := raw.(map[string]any)
		return m, ok
	}
	return nil, false
}
