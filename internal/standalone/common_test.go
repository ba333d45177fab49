package standalone

import (
	"github.com/amazonlinux/bottlerocket/standalone-update/internal/artifact"
	"github.com/amazonlinux/bottlerocket/standalone-update/pkg/logging"
)

var testArtifactConfig = artifact.Config{ScriptsDir: "/test/scripts"}

var testLog = logging.New("standalone-test")
