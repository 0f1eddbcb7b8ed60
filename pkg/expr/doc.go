// Package expr implements the lexer, recursive-descent parser, and
// tree-walking evaluator for the field and instance expressions used
// throughout a schema (sizes, conditions, discriminants, instance values).
//
// The package is self-contained: it knows the grammar and the arithmetic
// contracts but nothing about schema or stream semantics. Callers supply a
// Resolver that answers identifier, member, index, and enum-scope lookups
// against whatever evaluation context they maintain.
package expr
