package standalone

import (
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/module"
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/store"
	"github.com/amazonlinux/bottlerocket/standalone-update/pkg/logging"
)

// failureHandler is invoked from any install or commit failure after the
// state has been persisted. It runs the internal rollback routine, maps its
// result onto the matching Failed* outcome, then runs ArtifactFailure and
// Cleanup, forcing the outcome to FailedAndRollbackFailed on any further
// error, and finally either removes the state (rollback succeeded) or
// commits it as broken.
func failureHandler(c *Context, state *StandaloneState, facade module.Facade, log logging.Logger, primary *Error) Outcome {
	rbResult, rbErr := doRollback(facade)
	accumulated := primary.FollowedBy(rbErr)

	var result Result
	switch rbResult {
	case RolledBack:
		result = FailedAndRolledBack
	case NoRollback:
		result = FailedAndNoRollback
	case RollbackFailed:
		result = FailedAndRollbackFailed
	default:
		return outcome(FailedAndRollbackFailed, New(ProgrammingError,
			"unexpected result from internal rollback in failure handler"))
	}

	if err := facade.ArtifactFailure(); err != nil {
		result = FailedAndRollbackFailed
		accumulated = accumulated.FollowedBy(Wrap(err, IOError, "artifact failure callout failed"))
	}

	if cleanupErr := cleanup(facade, log); cleanupErr != nil {
		result = FailedAndRollbackFailed
		accumulated = accumulated.FollowedBy(cleanupErr)
	}

	if result == FailedAndRolledBack {
		if err := c.removeState(); err != nil {
			result = FailedAndRollbackFailed
			accumulated = accumulated.FollowedBy(err)
		}
	} else {
		if err := commitBrokenArtifact(c, state); err != nil {
			result = FailedAndRollbackFailed
			accumulated = accumulated.FollowedBy(err)
		}
	}

	return outcome(result, accumulated)
}

// commitBrokenArtifact finalizes a failed installation by appending the
// configured suffix to the artifact's name and committing it as the
// device's current provides record, in the same transaction as the
// standalone state removal.
//
// The suffix is applied to state.ArtifactName unconditionally, but only
// mirrored into state.Provides["artifact_name"] when a Provides map is
// present at all — an asymmetry inherited unchanged from the source this
// core was distilled from (see DESIGN.md).
func commitBrokenArtifact(c *Context, state *StandaloneState) *Error {
	state.ArtifactName += c.BrokenArtifactNameSuffix
	if state.Provides != nil {
		state.Provides["artifact_name"] = state.ArtifactName
	}

	err := c.CommitArtifactData(
		state.ArtifactName,
		state.ArtifactGroup,
		state.Provides,
		state.ClearsProvides,
		func(txn store.Txn) error {
			return txn.Remove(store.StandaloneStateKey)
		},
	)
	if err != nil {
		return Wrap(err, KeyError, "unable to commit broken artifact data")
	}
	return nil
}
