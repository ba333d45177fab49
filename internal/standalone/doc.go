// Package standalone implements the update execution core: Install,
// Commit, and Rollback, each synchronous and returning an Outcome, driven
// against a Context that injects the store, the update-module factory, and
// the artifact and broken-artifact-commit collaborators.
package standalone
