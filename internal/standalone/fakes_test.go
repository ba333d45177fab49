package standalone

import (
	"archive/tar"
	"bytes"
	"io"
	"sync"

	"github.com/amazonlinux/bottlerocket/standalone-update/internal/module"
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/store"
)

// fakeStore is an in-memory standin for the badger-backed store, enough to
// drive the orchestrators' Load/Save/Remove/WithTransaction contract
// without touching disk.
type fakeStore struct {
	mu   sync.Mutex
	data map[string][]byte

	LoadErr  error
	SaveErr  error
	RemoveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}}
}

func (f *fakeStore) Load(key string) (store.LoadResult, error) {
	if f.LoadErr != nil {
		return store.LoadResult{}, f.LoadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return store.LoadResult{}, nil
	}
	return store.LoadResult{Present: true, Value: v}, nil
}

func (f *fakeStore) Save(key string, value []byte) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeStore) Remove(key string) error {
	if f.RemoveErr != nil {
		return f.RemoveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeStore) WithTransaction(fn func(*store.Transaction) error) error {
	// The fake has no real transaction primitive and fn receives a zero
	// Transaction that applies nothing to the map. The orchestrators never
	// call WithTransaction; their transactional remove goes through
	// fakeProvides and fakeTxn below.
	return fn(&store.Transaction{})
}

// fakeTxn implements store.Txn directly against a fakeStore's map, so
// fakeProvides can exercise the "remove the standalone key inside the
// commit transaction" contract without a real badger transaction.
type fakeTxn struct {
	store *fakeStore
}

func (t *fakeTxn) Remove(key string) error {
	return t.store.Remove(key)
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

// fakeFacade implements module.Facade with per-call override functions,
// defaulting to success, the same optional-Fn-field shape the teacher used
// for its platform/poster/proc test doubles.
type fakeFacade struct {
	PrepareFileTreeFn func(module.Header) error
	DownloadFn        func(io.Reader) error
	ArtifactInstallFn func() error
	NeedsRebootFn     func() (module.RebootAction, error)
	SupportsRollbackFn func() (bool, error)
	ArtifactCommitFn   func() error
	ArtifactRollbackFn func() error
	ArtifactFailureFn  func() error
	CleanupFn          func() error

	cleanupCalled bool
}

func (f *fakeFacade) PrepareFileTree(h module.Header) error {
	if f.PrepareFileTreeFn != nil {
		return f.PrepareFileTreeFn(h)
	}
	return nil
}

func (f *fakeFacade) Download(r io.Reader) error {
	if f.DownloadFn != nil {
		return f.DownloadFn(r)
	}
	_, err := io.Copy(io.Discard, r)
	return err
}

func (f *fakeFacade) ArtifactInstall() error {
	if f.ArtifactInstallFn != nil {
		return f.ArtifactInstallFn()
	}
	return nil
}

func (f *fakeFacade) NeedsReboot() (module.RebootAction, error) {
	if f.NeedsRebootFn != nil {
		return f.NeedsRebootFn()
	}
	return module.RebootNo, nil
}

func (f *fakeFacade) SupportsRollback() (bool, error) {
	if f.SupportsRollbackFn != nil {
		return f.SupportsRollbackFn()
	}
	return true, nil
}

func (f *fakeFacade) ArtifactCommit() error {
	if f.ArtifactCommitFn != nil {
		return f.ArtifactCommitFn()
	}
	return nil
}

func (f *fakeFacade) ArtifactRollback() error {
	if f.ArtifactRollbackFn != nil {
		return f.ArtifactRollbackFn()
	}
	return nil
}

func (f *fakeFacade) ArtifactFailure() error {
	if f.ArtifactFailureFn != nil {
		return f.ArtifactFailureFn()
	}
	return nil
}

func (f *fakeFacade) Cleanup() error {
	f.cleanupCalled = true
	if f.CleanupFn != nil {
		return f.CleanupFn()
	}
	return nil
}

// fakeProvides is a recording standin for the context's CommitArtifactData
// collaborator.
type fakeProvides struct {
	store     *fakeStore
	CommitErr error

	calls []providesCall
}

type providesCall struct {
	ArtifactName  string
	ArtifactGroup string
	Provides      map[string]string
	Clears        []string
}

func (f *fakeProvides) Commit(name, group string, provides map[string]string, clears []string, txnFn func(store.Txn) error) error {
	f.calls = append(f.calls, providesCall{name, group, provides, clears})
	if f.CommitErr != nil {
		return f.CommitErr
	}
	if txnFn != nil {
		return txnFn(&fakeTxn{store: f.store})
	}
	return nil
}

// buildArtifact constructs a minimal tar-framed artifact with one header
// entry and one payload entry, matching what internal/artifact.Parse reads.
func buildArtifact(artifactName, artifactGroup, payloadType, payloadBody string) []byte {
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)

	headerJSON := []byte(`{"artifact_name":"` + artifactName + `","artifact_group":"` + artifactGroup +
		`","payload_type":"` + payloadType + `","type_info":{}}`)
	_ = tw.WriteHeader(&tar.Header{Name: "header.json", Size: int64(len(headerJSON))})
	_, _ = tw.Write(headerJSON)

	_ = tw.WriteHeader(&tar.Header{Name: "payload", Size: int64(len(payloadBody))})
	_, _ = tw.Write([]byte(payloadBody))

	_ = tw.Close()
	return buf.Bytes()
}

func newTestContext(s *fakeStore, factory func(*fakeFacade), prov *fakeProvides) (*Context, *fakeFacade) {
	facade := &fakeFacade{}
	if factory != nil {
		factory(facade)
	}
	prov.store = s
	return &Context{
		Store: s,
		ModuleFactory: func(payloadType string) module.Facade {
			return facade
		},
		ArtifactConfig:           testArtifactConfig,
		BrokenArtifactNameSuffix: "_INCONSISTENT",
		CommitArtifactData:       prov.Commit,
		Log:                      testLog,
	}, facade
}
