// Package resolver fetches indirect objects on demand and caches them for
// the life of a document.
//
// A Resolver is built from the file bytes and the cross-reference index:
//
//	idx, err := core.NewIndexBuilder(data, filters, warnings).Open(ctx)
//	r := resolver.NewResolver(data, idx, resolver.WithWarnings(warnings))
//	page, err := r.Get(ctx, core.ObjectKey{Number: 3})
//
// # Caching
//
// Each object is parsed at most once. Concurrent requests for the same
// key wait on a single parse; requests for other keys proceed in
// parallel. Fetching one member of an object stream decodes the stream
// once and caches all of its members.
//
// # Dereferencing
//
// Get follows chains of references up to a bounded hop count and yields
// Null for longer chains and cycles:
//
//	r := resolver.NewResolver(data, idx, resolver.WithMaxHops(8))
//
// Accessor wraps the typed dictionary getters with one level of
// dereferencing, returning zero values rather than errors when a value
// has the wrong type. ResolveDeep expands a whole object tree.
package resolver
