package main

import (
	"context"
	"flag"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/amazonlinux/bottlerocket/standalone-update/internal/pathconf"
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/provides"
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/reboot"
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/standalone"
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/store"
	"github.com/amazonlinux/bottlerocket/standalone-update/pkg/logging"
	"github.com/amazonlinux/bottlerocket/standalone-update/pkg/sigcontext"
)

var (
	flagInstall  = flag.String("install", "", "install the artifact at the given local path")
	flagCommit   = flag.Bool("commit", false, "commit a previously installed artifact")
	flagRollback = flag.Bool("rollback", false, "roll back a previously installed artifact")
	flagReboot   = flag.Bool("reboot", false, "reboot the host when the result reports a reboot is required")
	flagStoreDir = flag.String("store", pathconf.StoreDir, "path to the state store")
	flagLogDebug = flag.Bool("debug", false, "enable debug logging")
)

func main() {
	flag.Parse()

	if *flagLogDebug {
		logging.Set(logging.Level("debug"))
	}
	log := logging.New("main")

	ctx, cancel := sigcontext.WithSignalCancel(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	op, err := selectOperation()
	if err != nil {
		log.Error(err)
		flag.Usage()
		os.Exit(2)
	}

	sc, err := store.Open(*flagStoreDir)
	if err != nil {
		log.WithError(err).Fatal("unable to open state store")
	}
	defer sc.Close()

	commitArtifactData := func(
		artifactName, artifactGroup string,
		artifactProvides map[string]string,
		clearsProvides []string,
		txnFn func(store.Txn) error,
	) error {
		return provides.Commit(sc, artifactName, artifactGroup, artifactProvides, clearsProvides, txnFn)
	}
	standaloneCtx := standalone.NewContext(sc, commitArtifactData)

	// The core has no cancellation points of its own -- a signal received
	// mid-operation is only observed and logged here, never used to abort
	// the in-flight step, since a half-applied install/commit/rollback is
	// worse than letting it run to its own terminal outcome.
	result := runWatched(ctx, log, func() standalone.Outcome { return op(standaloneCtx) })
	if result.Err != nil {
		log.WithError(errors.New(result.Err.Error())).WithField("result", result.Result).Error("operation finished with errors")
	} else {
		log.WithField("result", result.Result).Info("operation finished")
	}

	if *flagReboot {
		maybeReboot(log, result.Result)
	}

	os.Exit(exitCode(result.Result))
}

// runWatched runs op to completion while a second goroutine watches ctx for
// a termination signal, logging it without interrupting op.
func runWatched(ctx context.Context, log logging.Logger, op func() standalone.Outcome) standalone.Outcome {
	var g errgroup.Group
	resultCh := make(chan standalone.Outcome, 1)
	done := make(chan struct{})

	g.Go(func() error {
		resultCh <- op()
		close(done)
		return nil
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
			log.Warn("signal received during operation, letting it run to completion")
		case <-done:
		}
		return nil
	})

	result := <-resultCh
	_ = g.Wait()
	return result
}

func selectOperation() (func(*standalone.Context) standalone.Outcome, error) {
	selected := 0
	var op func(*standalone.Context) standalone.Outcome

	if *flagInstall != "" {
		selected++
		src := *flagInstall
		op = func(c *standalone.Context) standalone.Outcome { return standalone.Install(c, src) }
	}
	if *flagCommit {
		selected++
		op = standalone.Commit
	}
	if *flagRollback {
		selected++
		op = standalone.Rollback
	}

	switch selected {
	case 0:
		return nil, errors.New("no operation specified, provide one of -install, -commit, -rollback")
	case 1:
		return op, nil
	default:
		return nil, errors.New("exactly one of -install, -commit, -rollback may be given")
	}
}

func maybeReboot(log logging.Logger, result standalone.Result) {
	switch result {
	case standalone.InstalledRebootRequired, standalone.InstalledAndCommittedRebootRequired:
		log.Warn("result reports a reboot is required, rebooting")
		if err := reboot.NewSystemdCoordinator().Reboot(); err != nil {
			log.WithError(err).Error("unable to schedule reboot")
		}
	}
}

// exitCode maps a Result onto a process exit status: 0 for any terminal
// success, 1 for a terminal failure, matching the CLI convention the
// surrounding daemon would otherwise encode in its own exit handling.
func exitCode(result standalone.Result) int {
	switch result {
	case standalone.Installed,
		standalone.InstalledRebootRequired,
		standalone.InstalledAndCommitted,
		standalone.InstalledAndCommittedRebootRequired,
		standalone.Committed,
		standalone.RolledBack,
		standalone.NoRollback:
		return 0
	default:
		return 1
	}
}
