package standalone

import (
	"os"
	"strings"

	"github.com/amazonlinux/bottlerocket/standalone-update/internal/artifact"
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/module"
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/pathconf"
	"github.com/amazonlinux/bottlerocket/standalone-update/pkg/logging"
	"github.com/sirupsen/logrus"
)

// Install drives the install half of the lifecycle: load state, open the
// artifact, prepare the module's work tree, persist state, download,
// install, then decide whether the result is terminal or should fall
// straight through to commit.
func Install(c *Context, src string) Outcome {
	log := c.Log.WithField("op", "install")

	state, lerr := c.loadState()
	if lerr != nil {
		log.WithError(lerr).Error("unable to load standalone state")
		return outcome(FailedNothingDone, lerr)
	}
	if state != nil {
		return outcome(FailedNothingDone, New(OperationInProgress,
			"Update already in progress. Please commit or roll back first"))
	}

	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return outcome(FailedNothingDone, New(NotSupported, "HTTP not supported yet"))
	}

	f, err := os.Open(src)
	if err != nil {
		return outcome(FailedNothingDone, Wrap(err, IOError, "unable to open artifact source"))
	}
	defer f.Close()

	art, err := artifact.Parse(f, c.ArtifactConfig)
	if err != nil {
		return outcome(FailedNothingDone, Wrap(err, ParseError, "unable to parse artifact"))
	}
	header, err := artifact.View(art, 0)
	if err != nil {
		return outcome(FailedNothingDone, Wrap(err, ParseError, "unable to read artifact header"))
	}

	facade := c.ModuleFactory(header.PayloadType)

	if err := facade.PrepareFileTree(module.Header{
		ArtifactName: header.ArtifactName,
		PayloadType:  header.PayloadType,
	}); err != nil {
		cerr := Wrap(err, IOError, "unable to prepare module work tree")
		if cleanupErr := cleanup(facade, log); cleanupErr != nil {
			cerr = cerr.FollowedBy(cleanupErr)
		}
		return outcome(FailedNothingDone, cerr)
	}

	newState := &StandaloneState{
		Version:        pathconf.SupportedVersion,
		ArtifactName:   header.ArtifactName,
		ArtifactGroup:  header.ArtifactGroup,
		Provides:       header.ArtifactProvides,
		ClearsProvides: header.ClearsArtifactProvides,
		PayloadTypes:   []string{header.PayloadType},
	}
	if serr := c.saveState(newState); serr != nil {
		if cleanupErr := cleanup(facade, log); cleanupErr != nil {
			serr = serr.FollowedBy(cleanupErr)
		}
		return outcome(FailedNothingDone, serr)
	}

	payload, err := art.Next()
	if err != nil {
		return outcome(FailedNothingDone, Wrap(err, IOError, "unable to read artifact payload"))
	}

	if err := facade.Download(payload); err != nil {
		derr := Wrap(err, IOError, "module download failed")
		if cleanupErr := cleanup(facade, log); cleanupErr != nil {
			derr = derr.FollowedBy(cleanupErr)
		}
		if rerr := c.removeState(); rerr != nil {
			derr = derr.FollowedBy(rerr)
		}
		return outcome(FailedNothingDone, derr)
	}

	if err := facade.ArtifactInstall(); err != nil {
		log.WithError(err).Error("artifact install failed")
		return failureHandler(c, newState, facade, log, Wrap(err, IOError, "artifact install failed"))
	}

	needsReboot, err := facade.NeedsReboot()
	if err != nil {
		return failureHandler(c, newState, facade, log, Wrap(err, IOError, "needs-reboot query failed"))
	}

	supportsRollback, err := facade.SupportsRollback()
	if err != nil {
		return failureHandler(c, newState, facade, log, Wrap(err, IOError, "supports-rollback query failed"))
	}

	log.WithFields(logrus.Fields{
		"needs_reboot":      needsReboot,
		"supports_rollback": supportsRollback,
	}).Info("artifact installed")

	if supportsRollback {
		if needsReboot != module.RebootNo {
			return outcome(InstalledRebootRequired, nil)
		}
		return outcome(Installed, nil)
	}

	commitOutcome := Commit(c)
	if commitOutcome.Result != Committed {
		return commitOutcome
	}
	if needsReboot != module.RebootNo {
		return outcome(InstalledAndCommittedRebootRequired, commitOutcome.Err)
	}
	return outcome(InstalledAndCommitted, commitOutcome.Err)
}

func cleanup(facade module.Facade, log logging.Logger) *Error {
	if err := facade.Cleanup(); err != nil {
		log.WithError(err).Error("cleanup failed")
		return Wrap(err, IOError, "cleanup failed")
	}
	return nil
}
