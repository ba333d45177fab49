package standalone

import (
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/module"
)

// doRollback is the internal rollback routine shared by Rollback and the
// Failure Handler: query SupportsRollback, and if supported, attempt
// ArtifactRollback.
func doRollback(facade module.Facade) (Result, *Error) {
	supports, err := facade.SupportsRollback()
	if err != nil {
		return NoRollback, Wrap(err, IOError, "supports-rollback query failed")
	}
	if !supports {
		return NoRollback, nil
	}
	if err := facade.ArtifactRollback(); err != nil {
		return RollbackFailed, Wrap(err, IOError, "artifact rollback failed")
	}
	return RolledBack, nil
}

// Rollback drives the rollback half of the lifecycle from a previously
// persisted state.
func Rollback(c *Context) Outcome {
	log := c.Log.WithField("op", "rollback")

	state, lerr := c.loadState()
	if lerr != nil {
		return outcome(FailedNothingDone, lerr)
	}
	if state == nil {
		return outcome(NoUpdateInProgress, New(NoUpdateInProgressKind, "Cannot roll back"))
	}

	facade := c.ModuleFactory(state.PayloadTypes[0])

	result, rerr := doRollback(facade)
	if result == NoRollback {
		// State must remain: a later commit or a restored rollback attempt
		// still needs to act on it.
		return outcome(NoRollback, rerr)
	}

	if cleanupErr := cleanup(facade, log); cleanupErr != nil {
		result = FailedAndRollbackFailed
		rerr = rerr.FollowedBy(cleanupErr)
	}

	if result == RolledBack {
		if remErr := c.removeState(); remErr != nil {
			result = RollbackFailed
			rerr = rerr.FollowedBy(remErr)
		}
	} else {
		if cbaErr := commitBrokenArtifact(c, state); cbaErr != nil {
			result = RollbackFailed
			rerr = rerr.FollowedBy(cbaErr)
		}
	}

	return outcome(result, rerr)
}
