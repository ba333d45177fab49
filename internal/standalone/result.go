package standalone

// Result is the closed set of terminal outcomes a public operation may
// return. String-backed so log fields and CLI exit mapping stay readable.
type Result string

const (
	FailedNothingDone                   Result = "FailedNothingDone"
	NoUpdateInProgress                  Result = "NoUpdateInProgress"
	Installed                           Result = "Installed"
	InstalledRebootRequired             Result = "InstalledRebootRequired"
	InstalledAndCommitted               Result = "InstalledAndCommitted"
	InstalledAndCommittedRebootRequired Result = "InstalledAndCommittedRebootRequired"
	Committed                           Result = "Committed"
	InstalledButFailedInPostCommit      Result = "InstalledButFailedInPostCommit"
	NoRollback                          Result = "NoRollback"
	RolledBack                          Result = "RolledBack"
	RollbackFailed                      Result = "RollbackFailed"
	FailedAndRolledBack                 Result = "FailedAndRolledBack"
	FailedAndNoRollback                 Result = "FailedAndNoRollback"
	FailedAndRollbackFailed             Result = "FailedAndRollbackFailed"
)

// Outcome is the pair every public operation returns. When both fields carry
// meaningful data, Result is authoritative; Err carries the full diagnostic
// chain accumulated along the way.
type Outcome struct {
	Result Result
	Err    *Error
}

func outcome(r Result, err *Error) Outcome {
	return Outcome{Result: r, Err: err}
}
