// Package artifact implements the minimal reader the core needs for its one
// collaborator call: open a local artifact stream, view its header, and
// pull payloads out one at a time. Parsing beyond that — signature
// verification, script execution, scripts directory layout — is out of
// scope for the core and is not reimplemented here beyond what's needed to
// exercise Config.ScriptsDir.
//
// The on-wire format mirrors the real artifact container: a tar stream
// whose first entries are header metadata and whose remaining entries are
// named payload streams, one per declared payload type.
package artifact

import (
	"archive/tar"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Config points the parser at the device's artifact scripts directory, used
// for any header/provides scripts the artifact format requires before its
// payload can be trusted. The standalone core does not interpret the
// scripts itself; it only has to supply the directory.
type Config struct {
	ScriptsDir string
}

// TypeInfo carries the provides/clears-provides declarations scoped to a
// single payload within the artifact.
type TypeInfo struct {
	ArtifactProvides       map[string]string `json:"artifact_provides,omitempty"`
	ClearsArtifactProvides []string          `json:"clears_artifact_provides,omitempty"`
}

// header is the on-wire shape of the artifact's header.json entry.
type header struct {
	ArtifactName string   `json:"artifact_name"`
	ArtifactGroup string  `json:"artifact_group"`
	PayloadType  string   `json:"payload_type"`
	TypeInfo     TypeInfo `json:"type_info"`
}

// PayloadHeaderView is the read-only view over the parsed header the core
// consumes to build StandaloneState and to resolve the update module.
type PayloadHeaderView struct {
	ArtifactName            string
	ArtifactGroup           string
	PayloadType             string
	ArtifactProvides        map[string]string
	ClearsArtifactProvides  []string
}

// Artifact is an opened artifact stream positioned to yield payloads.
type Artifact struct {
	header header
	tr     *tar.Reader
}

// Parse opens an artifact stream and reads its header entry. cfg is
// currently unused beyond validating it was supplied — a real
// implementation would use cfg.ScriptsDir to locate header-processing
// scripts; the core itself never reaches into ScriptsDir.
func Parse(r io.Reader, cfg Config) (*Artifact, error) {
	if cfg.ScriptsDir == "" {
		return nil, errors.New("artifact config missing scripts directory")
	}

	tr := tar.NewReader(r)
	hdr, err := tr.Next()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read artifact header entry")
	}
	if hdr.Name != "header.json" {
		return nil, errors.Errorf("expected header.json as first artifact entry, got %q", hdr.Name)
	}

	var h header
	if err := json.NewDecoder(tr).Decode(&h); err != nil {
		return nil, errors.Wrap(err, "unable to decode artifact header")
	}
	if h.ArtifactName == "" {
		return nil, errors.New("artifact header missing artifact_name")
	}
	if h.PayloadType == "" {
		return nil, errors.New("artifact header missing payload_type")
	}

	return &Artifact{header: h, tr: tr}, nil
}

// View returns the header view for payload index idx. The header declares a
// single payload type, so index 0 is the only one available. Artifacts with
// more than one payload entry are not rejected: payload entries after the
// first are never inspected.
func View(a *Artifact, idx int) (*PayloadHeaderView, error) {
	if idx != 0 {
		return nil, errors.Errorf("payload index %d not available", idx)
	}
	return &PayloadHeaderView{
		ArtifactName:           a.header.ArtifactName,
		ArtifactGroup:          a.header.ArtifactGroup,
		PayloadType:            a.header.PayloadType,
		ArtifactProvides:       a.header.TypeInfo.ArtifactProvides,
		ClearsArtifactProvides: a.header.TypeInfo.ClearsArtifactProvides,
	}, nil
}

// Payload is a single streamed payload body.
type Payload struct {
	io.Reader
}

// Next returns the next payload entry in the artifact stream.
func (a *Artifact) Next() (*Payload, error) {
	hdr, err := a.tr.Next()
	if err == io.EOF {
		return nil, errors.New("artifact contains no payload entries")
	}
	if err != nil {
		return nil, errors.Wrap(err, "unable to read artifact payload entry")
	}
	_ = hdr
	return &Payload{Reader: a.tr}, nil
}
