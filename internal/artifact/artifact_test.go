package artifact

import (
	"archive/tar"
	"bytes"
	"io"
	"testing"

	"gotest.tools/v3/assert"
)

func buildArtifactStream(t *testing.T, headerJSON, payload string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)

	assert.NilError(t, tw.WriteHeader(&tar.Header{Name: "header.json", Size: int64(len(headerJSON))}))
	_, err := tw.Write([]byte(headerJSON))
	assert.NilError(t, err)

	assert.NilError(t, tw.WriteHeader(&tar.Header{Name: "payload", Size: int64(len(payload))}))
	_, err = tw.Write([]byte(payload))
	assert.NilError(t, err)

	assert.NilError(t, tw.Close())
	return buf.Bytes()
}

var testConfig = Config{ScriptsDir: "/test/scripts"}

func TestParseAndViewHeader(t *testing.T) {
	data := buildArtifactStream(t,
		`{"artifact_name":"a","artifact_group":"g","payload_type":"rootfs-image","type_info":{"artifact_provides":{"k":"v"},"clears_artifact_provides":["old"]}}`,
		"payload-body")

	a, err := Parse(bytes.NewReader(data), testConfig)
	assert.NilError(t, err)

	view, err := View(a, 0)
	assert.NilError(t, err)
	assert.Equal(t, view.ArtifactName, "a")
	assert.Equal(t, view.ArtifactGroup, "g")
	assert.Equal(t, view.PayloadType, "rootfs-image")
	assert.DeepEqual(t, view.ArtifactProvides, map[string]string{"k": "v"})
	assert.DeepEqual(t, view.ClearsArtifactProvides, []string{"old"})
}

func TestNextReturnsPayloadBody(t *testing.T) {
	data := buildArtifactStream(t,
		`{"artifact_name":"a","artifact_group":"","payload_type":"rootfs-image","type_info":{}}`,
		"payload-body")

	a, err := Parse(bytes.NewReader(data), testConfig)
	assert.NilError(t, err)

	payload, err := a.Next()
	assert.NilError(t, err)

	body, err := io.ReadAll(payload)
	assert.NilError(t, err)
	assert.Equal(t, string(body), "payload-body")
}

func TestParseRejectsMissingScriptsDir(t *testing.T) {
	data := buildArtifactStream(t, `{"artifact_name":"a","payload_type":"x","type_info":{}}`, "p")
	_, err := Parse(bytes.NewReader(data), Config{})
	assert.Check(t, err != nil)
}

func TestParseRejectsMissingArtifactName(t *testing.T) {
	data := buildArtifactStream(t, `{"payload_type":"x","type_info":{}}`, "p")
	_, err := Parse(bytes.NewReader(data), testConfig)
	assert.Check(t, err != nil)
}

func TestViewRejectsNonZeroIndex(t *testing.T) {
	data := buildArtifactStream(t, `{"artifact_name":"a","payload_type":"x","type_info":{}}`, "p")
	a, err := Parse(bytes.NewReader(data), testConfig)
	assert.NilError(t, err)

	_, err = View(a, 1)
	assert.Check(t, err != nil)
}
