// Package module wraps an external, per-payload-type update module program
// behind the lifecycle the core drives: PrepareFileTree, Download,
// ArtifactInstall, NeedsReboot, SupportsRollback, ArtifactCommit,
// ArtifactRollback, ArtifactFailure, and Cleanup. The core never calls
// anything else.
//
// Each verb is one subprocess invocation of the module executable resolved
// by payload type, the same os/exec invocation style the platform/updog
// binding used to drive the host's updog binary.
package module

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/amazonlinux/bottlerocket/standalone-update/internal/pathconf"
	"github.com/amazonlinux/bottlerocket/standalone-update/pkg/logging"
)

// RebootAction is the result of a NeedsReboot query.
type RebootAction string

const (
	RebootNo        RebootAction = "No"
	RebootYes       RebootAction = "Yes"
	RebootAutomatic RebootAction = "Automatic"
)

// Header carries the subset of the artifact header a module needs to
// prepare its work tree.
type Header struct {
	ArtifactName string
	PayloadType  string
}

// Facade is the typed wrapper the core calls through. A factory keyed by
// payload-type string is the only place that knows how to build one,
// matching the "single interface, one implementation per payload type"
// shape called for in place of any class hierarchy.
type Facade interface {
	PrepareFileTree(header Header) error
	Download(payload io.Reader) error
	ArtifactInstall() error
	NeedsReboot() (RebootAction, error)
	SupportsRollback() (bool, error)
	ArtifactCommit() error
	ArtifactRollback() error
	ArtifactFailure() error
	Cleanup() error
}

// Factory resolves a Facade for a payload type, internally establishing the
// work directory the module will operate in.
type Factory func(payloadType string) Facade

// NewFactory returns a Factory that resolves module executables under the
// configured module directory and caches NeedsReboot/SupportsRollback
// answers per Facade instance.
func NewFactory() Factory {
	return func(payloadType string) Facade {
		return &execFacade{
			bin:     pathconf.ModulePath(payloadType),
			workDir: pathconf.WorkDir(payloadType),
			log:     logging.New("module").WithField("payload_type", payloadType),
			cache:   newQueryCache(),
		}
	}
}

// execFacade invokes the module as an external process with the verb as its
// first argument, the way updog's executable type ran the host's updog
// binary.
type execFacade struct {
	bin     string
	workDir string
	log     logging.Logger
	cache   *queryCache
}

func (f *execFacade) run(args ...string) (string, error) {
	cmd := exec.Command(f.bin, args...)

	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)
	cmd.Stdout = writer
	cmd.Stderr = writer

	if logging.Debuggable {
		f.log.WithFields(logrus.Fields{"cmd": cmd.String()}).Debug("executing module")
	}

	if err := cmd.Start(); err != nil {
		return "", errors.Wrapf(err, "unable to start module %q", f.bin)
	}
	err := cmd.Wait()
	if writer.Flush(); err != nil {
		if logging.Debuggable {
			f.log.WithFields(logrus.Fields{
				"cmd":    cmd.String(),
				"output": buf.String(),
			}).WithError(err).Error("module command errored")
		}
		return buf.String(), errors.Wrapf(err, "module %q %v failed", f.bin, args)
	}
	return buf.String(), nil
}

func (f *execFacade) runWithStdin(stdin io.Reader, args ...string) error {
	cmd := exec.Command(f.bin, args...)
	cmd.Stdin = stdin

	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)
	cmd.Stdout = writer
	cmd.Stderr = writer

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "unable to start module %q", f.bin)
	}
	err := cmd.Wait()
	writer.Flush()
	if err != nil {
		f.log.WithFields(logrus.Fields{
			"cmd":    cmd.String(),
			"output": buf.String(),
		}).WithError(err).Error("module streaming command errored")
		return errors.Wrapf(err, "module %q %v failed", f.bin, args)
	}
	return nil
}

func (f *execFacade) PrepareFileTree(header Header) error {
	if err := os.MkdirAll(f.workDir, 0750); err != nil {
		return errors.Wrap(err, "unable to create module work tree")
	}
	_, err := f.run("prepare-file-tree", f.workDir, header.ArtifactName)
	return err
}

func (f *execFacade) Download(payload io.Reader) error {
	return f.runWithStdin(payload, "download", f.workDir)
}

func (f *execFacade) ArtifactInstall() error {
	_, err := f.run("artifact-install", f.workDir)
	return err
}

func (f *execFacade) NeedsReboot() (RebootAction, error) {
	if v, ok := f.cache.get("needs-reboot"); ok {
		return RebootAction(v), nil
	}
	out, err := f.run("needs-reboot", f.workDir)
	if err != nil {
		return "", err
	}
	action := parseRebootAction(out)
	f.cache.set("needs-reboot", string(action))
	return action, nil
}

func parseRebootAction(out string) RebootAction {
	switch trimmed(out) {
	case "Yes":
		return RebootYes
	case "Automatic":
		return RebootAutomatic
	default:
		return RebootNo
	}
}

func (f *execFacade) SupportsRollback() (bool, error) {
	if v, ok := f.cache.get("supports-rollback"); ok {
		return v == "true", nil
	}
	out, err := f.run("supports-rollback", f.workDir)
	if err != nil {
		return false, err
	}
	supports := trimmed(out) == "Yes"
	f.cache.set("supports-rollback", boolString(supports))
	return supports, nil
}

func (f *execFacade) ArtifactCommit() error {
	_, err := f.run("artifact-commit", f.workDir)
	return err
}

func (f *execFacade) ArtifactRollback() error {
	_, err := f.run("artifact-rollback", f.workDir)
	return err
}

func (f *execFacade) ArtifactFailure() error {
	_, err := f.run("artifact-failure", f.workDir)
	return err
}

func (f *execFacade) Cleanup() error {
	_, err := f.run("cleanup", f.workDir)
	return err
}

func trimmed(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r' || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
