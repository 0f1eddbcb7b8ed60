// Package schema models the declarative binary-format description the
// interpreter walks: type definitions, field specs, instance specs,
// enums, parameters, and switch types, plus a Validate pass that checks
// the model for structural and referential soundness.
//
// The package also carries a small hand-rolled lexer and recursive-descent
// parser that render one textual surface syntax for the model. That
// loader is ambient plumbing, not part of the interpretation engine: the
// engine (pkg/interp) only ever depends on the *TypeDef model in this
// package, never on the textual syntax.
package schema
