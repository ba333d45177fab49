// Package provides implements the context's committing of final provides
// data: the downstream collaborator the core calls exactly once, at the end
// of a successful commit or at the end of a broken-artifact finalization.
//
// It is a thin adapter over the same key-value store the standalone state
// lives in, under its own well-known key, so the commit write and the
// standalone-state removal can be folded into one transaction the way the
// core's contract requires.
package provides

import (
	"encoding/json"

	"github.com/amazonlinux/bottlerocket/standalone-update/internal/store"
	"github.com/pkg/errors"
)

// CurrentProvidesKey is the well-known key for the device's current
// provides record.
const CurrentProvidesKey = "current-provides"

// Record is the device's current advertised state: the provides map as of
// the most recently committed (or broken) artifact.
type Record struct {
	ArtifactName  string            `json:"artifact_name"`
	ArtifactGroup string            `json:"artifact_group"`
	Provides      map[string]string `json:"provides,omitempty"`
}

// Load reads the current provides record, if any has ever been committed.
func Load(s *store.Store) (*Record, error) {
	res, err := s.Load(CurrentProvidesKey)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load provides record")
	}
	if !res.Present {
		return nil, nil
	}
	var rec Record
	if err := json.Unmarshal(res.Value, &rec); err != nil {
		return nil, errors.Wrap(err, "unable to decode provides record")
	}
	return &rec, nil
}

// Commit matches the context collaborator's
// CommitArtifactData(name, group, provides, clears, txn_fn) contract: it
// computes the new provides record by applying clears against the prior
// record, then writes it and runs txnFn in the same transaction.
func Commit(
	s *store.Store,
	artifactName, artifactGroup string,
	artifactProvides map[string]string,
	clearsProvides []string,
	txnFn func(store.Txn) error,
) error {
	prior, err := Load(s)
	if err != nil {
		return err
	}

	merged := map[string]string{}
	if prior != nil {
		for k, v := range prior.Provides {
			merged[k] = v
		}
	}
	for _, cleared := range clearsProvides {
		delete(merged, cleared)
	}
	for k, v := range artifactProvides {
		merged[k] = v
	}

	rec := Record{
		ArtifactName:  artifactName,
		ArtifactGroup: artifactGroup,
		Provides:      merged,
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return errors.Wrap(err, "unable to encode provides record")
	}

	return s.WithTransaction(func(txn *store.Transaction) error {
		if err := txn.Set(CurrentProvidesKey, data); err != nil {
			return err
		}
		if txnFn != nil {
			return txnFn(txn)
		}
		return nil
	})
}
