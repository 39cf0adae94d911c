package resolver

import (
	"context"

	"github.com/tsawler/pdfexec/core"
)

// ResolveDeep returns a copy of obj with every reference inside nested
// dictionaries and arrays replaced by its target. A reference that
// leads back into the branch being expanded is left in place, as is
// anything nested deeper than maxDepth. Stream dictionaries are not
// expanded.
func (r *Resolver) ResolveDeep(ctx context.Context, obj core.Object, maxDepth int) (core.Object, error) {
	return r.resolveDeep(ctx, obj, make(map[core.ObjectKey]bool), maxDepth)
}

func (r *Resolver) resolveDeep(ctx context.Context, obj core.Object, visited map[core.ObjectKey]bool, depth int) (core.Object, error) {
	if depth <= 0 {
		return obj, nil
	}
	switch v := obj.(type) {
	case core.IndirectRef:
		key := v.Key()
		if visited[key] {
			return v, nil
		}
		visited[key] = true
		defer delete(visited, key)

		resolved, err := r.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return r.resolveDeep(ctx, resolved, visited, depth-1)

	case *core.Dict:
		entries := make([]core.DictEntry, 0, v.Len())
		for _, k := range v.Keys() {
			val, err := r.resolveDeep(ctx, v.Get(k), visited, depth-1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, core.DictEntry{Key: k, Value: val})
		}
		return core.NewDict(entries...), nil

	case core.Array:
		out := make(core.Array, len(v))
		for i, elem := range v {
			val, err := r.resolveDeep(ctx, elem, visited, depth-1)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	}
	return obj, nil
}
