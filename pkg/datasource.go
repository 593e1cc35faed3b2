package veil

import "fmt"

// DataSourceKind classifies store failures for the transaction-execution
// engine, which treats missing accounts, block headers and notes as
// "fetch from the remote node and retry" rather than hard faults.
type DataSourceKind int

const (
	DataSourceInternal DataSourceKind = iota
	DataSourceAccountMissing
	DataSourceBlockMissing
	DataSourceNoteMissing
)

// DataSourceError is the executor-facing view of a store failure. Only the
// enumerated not-found kinds are mapped to recoverable values; every other
// store error surfaces as DataSourceInternal with the original diagnostic
// intact.
type DataSourceError struct {
	Kind  DataSourceKind
	cause error
}

func (e *DataSourceError) Error() string {
	switch e.Kind {
	case DataSourceAccountMissing:
		return fmt.Sprintf("data source: account missing: %v", e.cause)
	case DataSourceBlockMissing:
		return fmt.Sprintf("data source: block header missing: %v", e.cause)
	case DataSourceNoteMissing:
		return fmt.Sprintf("data source: input note missing: %v", e.cause)
	default:
		return fmt.Sprintf("data source: internal store error: %v", e.cause)
	}
}

func (e *DataSourceError) Unwrap() error {
	return e.cause
}

// Recoverable reports whether the executor may resolve the failure by
// fetching the missing entity from the remote node.
func (e *DataSourceError) Recoverable() bool {
	return e.Kind != DataSourceInternal
}

// AsDataSourceError maps a store error into the execution engine's
// data-access error surface.
func AsDataSourceError(err error) *DataSourceError {
	switch CodeOf(err) {
	case AccountNotFound:
		return &DataSourceError{Kind: DataSourceAccountMissing, cause: err}
	case BlockHeaderNotFound:
		return &DataSourceError{Kind: DataSourceBlockMissing, cause: err}
	case NoteNotFound:
		return &DataSourceError{Kind: DataSourceNoteMissing, cause: err}
	default:
		return &DataSourceError{Kind: DataSourceInternal, cause: err}
	}
}
