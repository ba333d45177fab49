package standalone

import "github.com/amazonlinux/bottlerocket/standalone-update/internal/store"

// Commit drives the commit half of the lifecycle from a previously
// persisted state, also used internally by Install when the module does
// not support rollback.
func Commit(c *Context) Outcome {
	log := c.Log.WithField("op", "commit")

	state, lerr := c.loadState()
	if lerr != nil {
		return outcome(FailedNothingDone, lerr)
	}
	if state == nil {
		return outcome(NoUpdateInProgress, New(NoUpdateInProgressKind, "Cannot commit"))
	}

	facade := c.ModuleFactory(state.PayloadTypes[0])

	if err := facade.ArtifactCommit(); err != nil {
		log.WithError(err).Error("artifact commit failed")
		return failureHandler(c, state, facade, log, Wrap(err, IOError, "artifact commit failed"))
	}

	result := Committed
	var accumulated *Error

	if cleanupErr := cleanup(facade, log); cleanupErr != nil {
		result = InstalledButFailedInPostCommit
		accumulated = accumulated.FollowedBy(cleanupErr)
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
		result = InstalledButFailedInPostCommit
		accumulated = accumulated.FollowedBy(Wrap(err, KeyError, "unable to commit artifact data"))
	}

	return outcome(result, accumulated)
}
