package standalone

import (
	"encoding/json"

	"github.com/amazonlinux/bottlerocket/standalone-update/internal/pathconf"
)

// StandaloneState is the single persisted record representing an
// in-progress update. Its JSON key names are part of the on-disk contract:
// existing devices may already have records written with these exact keys,
// so they are not renamed to idiomatic Go casing.
type StandaloneState struct {
	Version       int               `json:"Version"`
	ArtifactName  string            `json:"ArtifactName"`
	ArtifactGroup string            `json:"ArtifactGroup"`
	PayloadTypes  []string          `json:"PayloadTypes"`

	// Provides and ClearsProvides are "maybe" containers: nil means the
	// field was absent on the wire, a non-nil (possibly zero-length) value
	// means it was present. encoding/json's omitempty treats a zero-length
	// slice/map the same as nil, which would collapse "present but empty"
	// into "absent" on Save. wireState below works around that by only
	// omitting the field when the Go value is nil, not when it is empty.
	Provides       map[string]string `json:"-"`
	ClearsProvides []string          `json:"-"`
}

// wireState mirrors StandaloneState's on-disk shape with the two maybe
// fields declared as pointers, the one encoding/json trick that
// distinguishes "absent" from "present but empty" without hand-rolling a
// custom MarshalJSON/UnmarshalJSON pair.
type wireState struct {
	Version int `json:"Version"`
	ArtifactName *string `json:"ArtifactName"`
	ArtifactGroup string `json:"ArtifactGroup"`
	ArtifactTypeInfoProvides *map[string]string `json:"ArtifactTypeInfoProvides,omitempty"`
	ArtifactClearsProvides *[]string `json:"ArtifactClearsProvides,omitempty"`
	PayloadTypes []string `json:"PayloadTypes"`
}

// Save encodes s into its on-disk textual representation.
func Save(s *StandaloneState) ([]byte, *Error) {
	w := wireState{
		Version:       s.Version,
		ArtifactName:  &s.ArtifactName,
		ArtifactGroup: s.ArtifactGroup,
		PayloadTypes:  s.PayloadTypes,
	}
	if w.PayloadTypes == nil {
		w.PayloadTypes = []string{}
	}
	if s.Provides != nil {
		p := s.Provides
		w.ArtifactTypeInfoProvides = &p
	}
	if s.ClearsProvides != nil {
		c := s.ClearsProvides
		w.ArtifactClearsProvides = &c
	}

	data, err := json.Marshal(&w)
	if err != nil {
		return nil, Wrap(err, ParseError, "unable to encode standalone state")
	}
	return data, nil
}

// Load decodes and validates a persisted record. A missing ArtifactName or
// PayloadTypes key is rejected first, while decoding; the decoded values are
// then validated in the fixed order the core depends on: version, then
// artifact name, then payload types emptiness, then payload types
// cardinality.
func Load(data []byte) (*StandaloneState, *Error) {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, Wrap(err, ParseError, "unable to decode standalone state")
	}

	if w.ArtifactName == nil {
		return nil, New(KeyNotFoundInStructuredData, "missing required key ArtifactName")
	}
	if w.PayloadTypes == nil {
		return nil, New(KeyNotFoundInStructuredData, "missing required key PayloadTypes")
	}

	s := &StandaloneState{
		Version:       w.Version,
		ArtifactName:  *w.ArtifactName,
		ArtifactGroup: w.ArtifactGroup,
		PayloadTypes:  w.PayloadTypes,
	}
	if w.ArtifactTypeInfoProvides != nil {
		s.Provides = *w.ArtifactTypeInfoProvides
	}
	if w.ArtifactClearsProvides != nil {
		s.ClearsProvides = *w.ArtifactClearsProvides
	}

	if s.Version != pathconf.SupportedVersion {
		return nil, New(NotSupported, "unsupported standalone state version")
	}
	if s.ArtifactName == "" {
		return nil, New(DatabaseValueError, "artifact_name must not be empty")
	}
	if len(s.PayloadTypes) == 0 {
		return nil, New(DatabaseValueError, "payload_types must not be empty")
	}
	if len(s.PayloadTypes) != 1 {
		return nil, New(NotSupported, "contains multiple payloads")
	}

	return s, nil
}
