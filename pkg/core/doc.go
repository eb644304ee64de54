// Package core provides the execution contexts of a terminology repository.
//
// Contexts form a chain: a RepositoryContext opens BranchContexts, which open
// TransactionContexts. Each context owns a layer of service bindings
// (see package registry) on top of the context it was opened from.
//
// A BranchContext reads from one immutable snapshot of a branch. A
// TransactionContext stages mutations in memory and writes them to the branch
// on Commit. A CappedTransaction commits automatically once the number of
// staged objects reaches some threshold, to bound memory usage in bulk loads.
package core
