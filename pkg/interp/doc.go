// Package interp ties pkg/schema and pkg/expr together into a running
// parse: given a type definition and a byte region, it produces a result
// Object tree by walking the sequence, evaluating expressions against the
// in-flight context, and installing lazy accessors for instances.
package interp
