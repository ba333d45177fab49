package standalone

import (
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/artifact"
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/module"
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/pathconf"
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/store"
	"github.com/amazonlinux/bottlerocket/standalone-update/pkg/logging"
)

// Store is the narrow contract the core needs from the key-value store:
// whole-record load/save/remove plus a transaction a caller can fold
// another write into. Satisfied by *store.Store; declared here so the
// orchestrators depend on a contract, not a concrete package.
type Store interface {
	Load(key string) (store.LoadResult, error)
	Save(key string, value []byte) error
	Remove(key string) error
	WithTransaction(fn func(*store.Transaction) error) error
}

// CommitArtifactDataFunc matches the context collaborator's single
// transactional "commit the new current provides, and fold in whatever
// else needs to happen in the same transaction" operation.
type CommitArtifactDataFunc func(
	artifactName, artifactGroup string,
	provides map[string]string,
	clears []string,
	txnFn func(store.Txn) error,
) error

// Context is injected into every public operation; the core keeps no
// process-wide singletons of its own.
type Context struct {
	Store Store

	// ModuleFactory resolves a module.Facade by payload type.
	ModuleFactory module.Factory

	// ArtifactConfig points the artifact parser at the scripts directory.
	ArtifactConfig artifact.Config

	// BrokenArtifactNameSuffix is appended to an artifact's name when its
	// installation is finalized as broken.
	BrokenArtifactNameSuffix string

	// CommitArtifactData is the downstream collaborator the core calls
	// exactly once per commit or broken-artifact finalization.
	CommitArtifactData CommitArtifactDataFunc

	Log logging.Logger
}

// NewContext wires a Context over a concrete store, using the default
// module factory, artifact config, and broken-artifact suffix.
func NewContext(s *store.Store, commit CommitArtifactDataFunc) *Context {
	return &Context{
		Store:                    s,
		ModuleFactory:            module.NewFactory(),
		ArtifactConfig:           artifact.Config{ScriptsDir: pathconf.ScriptsDir},
		BrokenArtifactNameSuffix: pathconf.BrokenArtifactNameSuffix,
		CommitArtifactData:       commit,
		Log:                      logging.New("standalone"),
	}
}

func (c *Context) loadState() (*StandaloneState, *Error) {
	res, err := c.Store.Load(store.StandaloneStateKey)
	if err != nil {
		return nil, Wrap(err, KeyError, "unable to load standalone state")
	}
	if !res.Present {
		return nil, nil
	}
	return Load(res.Value)
}

func (c *Context) saveState(s *StandaloneState) *Error {
	data, derr := Save(s)
	if derr != nil {
		return derr
	}
	if err := c.Store.Save(store.StandaloneStateKey, data); err != nil {
		return Wrap(err, KeyError, "unable to save standalone state")
	}
	return nil
}

func (c *Context) removeState() *Error {
	if err := c.Store.Remove(store.StandaloneStateKey); err != nil {
		return Wrap(err, KeyError, "unable to remove standalone state")
	}
	return nil
}
