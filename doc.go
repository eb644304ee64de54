/*
Package termstore provides a branched, revisioned store for terminology content.

Content (concepts, descriptions, relationships, reference set members) lives in a repository organized
as a tree of branches rooted at MAIN. Readers get immutable point-in-time snapshots of a branch, writers
stage changes in a transaction and commit them atomically.

The layers are:

	pkg/registry     typed service bindings, layered per context
	pkg/branchpath   branch path expressions and availability checks
	pkg/revision     the revision index contract, with an in-memory implementation
	pkg/core         repository, branch and transaction contexts
	cmd/termstore    the command line
*/
package termstore
