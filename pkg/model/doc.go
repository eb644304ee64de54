// Package model describes the base objects manipulated by termstore.
//
// The object model for termstore is composed of:
//
//  Branches:
//    A branch is a named node in the hierarchical revision tree of a repository, e.g. MAIN/2024-07/task-1.
//    Branches may be marked deleted: a deleted branch is still known, but no longer accepts readers or writers.
//
//  Documents:
//    Anything that can be staged and persisted on a branch. Revision-tracked documents (components such
//    as concepts, descriptions or reference set members) are versioned along the branch history;
//    plain records are not.
//
//  Commits:
//    The durable result of flushing a staging area onto a branch, with a timestamp and a summary of changes.
//
//  Repositories:
//    A repository groups branches for one terminology tooling, identified by a repository id (e.g. "snomedStore").
package model
