// Package binterp is the library entry point applications embed: parse a
// textual schema and a byte buffer into a value tree, or validate a schema
// on its own.
package binterp

import (
	"github.com/blockberries/binterp/pkg/expr"
	"github.com/blockberries/binterp/pkg/interp"
	"github.com/blockberries/binterp/pkg/schema"
)

// Options controls schema validation before a parse.
type Options struct {
	// Validate runs the schema validator before interpreting. When false,
	// structural violations surface later as interpreter errors at read
	// time instead of up front.
	Validate bool

	// Strict promotes validator warnings to errors.
	Strict bool
}

// DefaultOptions matches the library's documented defaults: validate on,
// strict off.
func DefaultOptions() Options { return Options{Validate: true} }

// Parse compiles schemaSource, optionally validates it, and interprets it
// against data, returning the result object tree.
func Parse(schemaSource string, data []byte, opts Options, typeArgs ...expr.Value) (*interp.Object, error) {
	root, err := compile(schemaSource)
	if err != nil {
		return nil, err
	}
	if opts.Validate {
		res := schema.Validate(root, schema.Options{Strict: opts.Strict})
		if !res.Valid {
			return nil, firstIssueError(res.Errors)
		}
	}
	return interp.Parse(root, data, typeArgs...)
}

// ValidateSchema compiles schemaSource and runs the validator without
// interpreting any bytes.
func ValidateSchema(schemaSource string, strict bool) (schema.Result, error) {
	root, err := compile(schemaSource)
	if err != nil {
		return schema.Result{}, err
	}
	return schema.Validate(root, schema.Options{Strict: strict}), nil
}

func compile(schemaSource string) (*schema.TypeDef, error) {
	root, errs := schema.Parse("schema", schemaSource)
	if len(errs) > 0 {
		first := errs[0]
		return nil, interp.NewParseError(first.Position, first.Message)
	}
	return root, nil
}

func firstIssueError(issues []schema.Issue) error {
	first := issues[0]
	return interp.NewValidationError(first.Pos, first.Message)
}
