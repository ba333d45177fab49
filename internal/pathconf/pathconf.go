// Package pathconf holds the fixed filesystem locations the standalone core
// and its collaborators agree on. There is no environment-driven
// configuration layer at this scale; flags on the CLI cover what varies.
package pathconf

import "path/filepath"

const (
	// ScriptsDir is where per-payload-type artifact scripts live, passed to
	// the artifact parser's config so header/provides scripts can run.
	ScriptsDir = "/var/lib/standalone-update/scripts"

	// ModuleDir is the root under which update module executables are
	// resolved by payload type: ModuleDir/<payload-type>.
	ModuleDir = "/var/lib/standalone-update/modules"

	// WorkDirRoot is the root of per-operation module work trees.
	WorkDirRoot = "/var/lib/standalone-update/work"

	// StoreDir is the default badger data directory.
	StoreDir = "/var/lib/standalone-update/state.db"

	// BrokenArtifactNameSuffix is appended to an artifact's name when its
	// installation fails irrecoverably and the failure is committed as a
	// broken-artifact provides record.
	BrokenArtifactNameSuffix = "_INCONSISTENT"

	// SupportedVersion is the only StandaloneState schema version this core
	// understands. Any other value on load is NotSupported.
	SupportedVersion = 1
)

// ModulePath resolves the executable for a payload type.
func ModulePath(payloadType string) string {
	return filepath.Join(ModuleDir, payloadType)
}

// WorkDir resolves the work tree for a payload type.
func WorkDir(payloadType string) string {
	return filepath.Join(WorkDirRoot, payloadType)
}
