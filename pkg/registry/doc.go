// Package registry provides typed, layered service bindings.
//
// A Registry is one binding layer. Layers are chained to a parent: a lookup
// resolves in the innermost layer first, then falls through to its ancestors.
// Binding a type in a child layer shadows any ancestor binding for the same type
// without ever touching the ancestor's own bindings.
//
// Execution contexts (repository, branch, transaction) compose their
// capabilities this way: each context owns one layer on top of the context it
// delegates to.
//
// Types are keyed by their static identity, as given by the type parameter:
//
//	registry.Bind[metrics.Sink](r, sink)
//	sink, err := registry.Service[metrics.Sink](r)
//
// A value bound as a concrete type is not found when looking up an interface it
// implements: bindings are explicit.
package registry
