package resolver

import (
	"context"

	"github.com/tsawler/pdfexec/core"
)

// Accessor reads dictionary entries through the resolver. Each getter
// dereferences the stored value once and returns the zero value with
// false when the entry is missing or has a different type.
type Accessor struct {
	r   *Resolver
	ctx context.Context
}

// Accessor binds the resolver to ctx for convenience lookups.
func (r *Resolver) Accessor(ctx context.Context) Accessor {
	return Accessor{r: r, ctx: ctx}
}

// Resolver returns the resolver behind a.
func (a Accessor) Resolver() *Resolver {
	return a.r
}

// Context returns the context lookups run under.
func (a Accessor) Context() context.Context {
	return a.ctx
}

// Resolve dereferences obj once.
func (a Accessor) Resolve(obj core.Object) core.Object {
	return a.r.Deref(a.ctx, obj)
}

// Get returns the dereferenced value of key, or Null.
func (a Accessor) Get(d *core.Dict, key string) core.Object {
	obj := d.Get(key)
	if obj == nil {
		return core.Null{}
	}
	return a.Resolve(obj)
}

func (a Accessor) GetName(d *core.Dict, key string) (core.Name, bool) {
	v, ok := a.Get(d, key).(core.Name)
	return v, ok
}

func (a Accessor) GetInt(d *core.Dict, key string) (int, bool) {
	switch v := a.Get(d, key).(type) {
	case core.Int:
		return int(v), true
	case core.Real:
		return int(v), true
	}
	return 0, false
}

// GetNumber accepts integers and reals
func (a Accessor) GetNumber(d *core.Dict, key string) (float64, bool) {
	return core.Number(a.Get(d, key))
}

func (a Accessor) GetBool(d *core.Dict, key string) (bool, bool) {
	v, ok := a.Get(d, key).(core.Bool)
	return bool(v), ok
}

func (a Accessor) GetString(d *core.Dict, key string) (core.String, bool) {
	v, ok := a.Get(d, key).(core.String)
	return v, ok
}

func (a Accessor) GetArray(d *core.Dict, key string) (core.Array, bool) {
	v, ok := a.Get(d, key).(core.Array)
	return v, ok
}

// GetDict returns a dictionary entry. A stream's dictionary counts.
func (a Accessor) GetDict(d *core.Dict, key string) (*core.Dict, bool) {
	return AsDict(a.Get(d, key))
}

// GetDictionaryOrDefault is GetDict with an empty dictionary in place of
// a missing one.
func (a Accessor) GetDictionaryOrDefault(d *core.Dict, key string) *core.Dict {
	if v, ok := a.GetDict(d, key); ok {
		return v
	}
	return core.NewDict()
}

func (a Accessor) GetStream(d *core.Dict, key string) (*core.Stream, bool) {
	v, ok := a.Get(d, key).(*core.Stream)
	return v, ok
}

// Floats dereferences an array and each of its elements, keeping the
// numeric ones. ok is false when obj is not an array.
func (a Accessor) Floats(obj core.Object) ([]float64, bool) {
	arr, ok := a.Resolve(obj).(core.Array)
	if !ok {
		return nil, false
	}
	out := make([]float64, 0, len(arr))
	for _, elem := range arr {
		if f, ok := core.Number(a.Resolve(elem)); ok {
			out = append(out, f)
		}
	}
	return out, true
}

// AsDict returns the dictionary of a *core.Dict or *core.Stream.
func AsDict(obj core.Object) (*core.Dict, bool) {
	switch v := obj.(type) {
	case *core.Dict:
		return v, true
	case *core.Stream:
		return v.Dict, true
	}
	return nil, false
}
