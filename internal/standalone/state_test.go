package standalone

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := &StandaloneState{
		Version:        1,
		ArtifactName:   "my-artifact",
		ArtifactGroup:  "my-group",
		Provides:       map[string]string{"artifact_name": "my-artifact"},
		ClearsProvides: []string{"old-thing"},
		PayloadTypes:   []string{"rootfs-image"},
	}

	data, err := Save(s)
	assert.Check(t, err == nil)

	loaded, lerr := Load(data)
	assert.Check(t, lerr == nil)
	assert.Equal(t, loaded.ArtifactName, s.ArtifactName)
	assert.Equal(t, loaded.ArtifactGroup, s.ArtifactGroup)
	assert.DeepEqual(t, loaded.Provides, s.Provides)
	assert.DeepEqual(t, loaded.ClearsProvides, s.ClearsProvides)
	assert.DeepEqual(t, loaded.PayloadTypes, s.PayloadTypes)
}

func TestSaveLoadEmptyGroupPreserved(t *testing.T) {
	s := &StandaloneState{
		Version:      1,
		ArtifactName: "my-artifact",
		PayloadTypes: []string{"rootfs-image"},
	}

	data, err := Save(s)
	assert.Check(t, err == nil)

	loaded, lerr := Load(data)
	assert.Check(t, lerr == nil)
	assert.Equal(t, loaded.ArtifactGroup, "")
	assert.Check(t, loaded.Provides == nil)
	assert.Check(t, loaded.ClearsProvides == nil)
}

func TestSaveLoadEmptyButPresentClearsProvides(t *testing.T) {
	s := &StandaloneState{
		Version:        1,
		ArtifactName:   "my-artifact",
		ClearsProvides: []string{},
		PayloadTypes:   []string{"rootfs-image"},
	}

	data, err := Save(s)
	assert.Check(t, err == nil)

	loaded, lerr := Load(data)
	assert.Check(t, lerr == nil)
	assert.Check(t, loaded.ClearsProvides != nil)
	assert.Equal(t, len(loaded.ClearsProvides), 0)
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	_, err := Load([]byte(`{"Version":99,"ArtifactName":"a","ArtifactGroup":"","PayloadTypes":["x"]}`))
	assert.Check(t, err != nil)
	assert.Equal(t, err.Kind, NotSupported)
}

func TestLoadRejectsMissingArtifactName(t *testing.T) {
	_, err := Load([]byte(`{"Version":1,"ArtifactGroup":"","PayloadTypes":["x"]}`))
	assert.Check(t, err != nil)
	assert.Equal(t, err.Kind, KeyNotFoundInStructuredData)
}

func TestLoadRejectsPresentButEmptyArtifactName(t *testing.T) {
	_, err := Load([]byte(`{"Version":1,"ArtifactName":"","ArtifactGroup":"","PayloadTypes":["x"]}`))
	assert.Check(t, err != nil)
	assert.Equal(t, err.Kind, DatabaseValueError)
}

func TestLoadRejectsEmptyPayloadTypes(t *testing.T) {
	_, err := Load([]byte(`{"Version":1,"ArtifactName":"a","ArtifactGroup":"","PayloadTypes":[]}`))
	assert.Check(t, err != nil)
	assert.Equal(t, err.Kind, DatabaseValueError)
}

func TestLoadRejectsMultiplePayloadTypes(t *testing.T) {
	_, err := Load([]byte(`{"Version":1,"ArtifactName":"a","ArtifactGroup":"","PayloadTypes":["x","y"]}`))
	assert.Check(t, err != nil)
	assert.Equal(t, err.Kind, NotSupported)
	assert.ErrorContains(t, err, "contains multiple payloads")
}
