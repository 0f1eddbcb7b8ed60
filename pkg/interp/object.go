package interp

import (
	"fmt"

	"github.com/blockberries/binterp/pkg/expr"
	"github.com/blockberries/binterp/pkg/schema"
)

// instanceSlot is the lazy-accessor state for one instance spec attached to
// an Object. A failed evaluation is never memoized: done only flips to
// true on success, so a later access retries from scratch.
type instanceSlot struct {
	spec  *schema.InstanceSpec
	done  bool
	value expr.Value
}

// Object is one parsed node of the result tree: the sequence fields read
// in order, plus lazy instance accessors that evaluate on first access.
type Object struct {
	Type   *schema.TypeDef
	Parent *Object

	Fields     map[string]expr.Value
	FieldOrder []string

	instances     map[string]*instanceSlot
	InstanceOrder []string

	ctx *Context // owns the stream this object's lazy instances read from
}

func newObject(ctx *Context, t *schema.TypeDef, parent *Object) *Object {
	return &Object{
		Type:      t,
		Parent:    parent,
		Fields:    make(map[string]expr.Value),
		instances: make(map[string]*instanceSlot),
		ctx:       ctx,
	}
}

// Instance forces evaluation of the named lazy instance accessor,
// memoizing on success; a failed attempt is not memoized and retries
// from scratch on the next access. Callers that serialize the result
// tree use this to realize instances in declaration order.
func (o *Object) Instance(name string) (expr.Value, error) {
	slot, ok := o.instances[name]
	if !ok {
		return expr.Value{}, fmt.Errorf("object has no instance %q", name)
	}
	return o.ctx.evalInstance(o, slot)
}

// InstanceNames returns the declared instance identifiers in schema order,
// for callers (e.g. the library facade) that need to enumerate lazy
// accessors without forcing them.
func (o *Object) InstanceNames() []string { return o.InstanceOrder }

// InstanceEvaluated reports whether name's lazy accessor has already run
// successfully, without forcing evaluation.
func (o *Object) InstanceEvaluated(name string) bool {
	slot, ok := o.instances[name]
	return ok && slot.done
}
