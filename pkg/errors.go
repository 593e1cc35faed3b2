package veil

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// Not-found family. For sync-reachable entities the caller may fetch
	// from the remote node and retry; for purely local lookups it is fatal.
	AccountNotFound        ErrorCode = "account-not-found"
	AccountCodeNotFound    ErrorCode = "account-code-not-found"
	AccountStorageNotFound ErrorCode = "account-storage-not-found"
	VaultDataNotFound      ErrorCode = "vault-data-not-found"
	NoteNotFound           ErrorCode = "note-not-found"
	BlockHeaderNotFound    ErrorCode = "block-header-not-found"
	ChainNodeNotFound      ErrorCode = "chain-node-not-found"

	// Conflict/consistency family. Never silently resolved.
	AccountHashMismatch ErrorCode = "account-hash-mismatch"
	TagAlreadyTracked   ErrorCode = "tag-already-tracked"
	AlreadyExists       ErrorCode = "already-exists"

	// Deserialization/parsing family: bytes or text read back from the
	// store are structurally corrupt.
	BadBinaryData ErrorCode = "bad-binary-data"
	BadJSONData   ErrorCode = "bad-json-data"
	BadHexData    ErrorCode = "bad-hex-data"

	// QueryError is a malformed query or binding: a programming or schema
	// bug, not retryable. DatabaseError is a genuine storage engine fault,
	// potentially transient. Callers use the distinction for retry policy.
	QueryError    ErrorCode = "query-error"
	DatabaseError ErrorCode = "database-error"

	// Domain family: the ledger object library rejected a value.
	VaultError  ErrorCode = "vault-error"
	AccountErr  ErrorCode = "account-error"
	ScriptError ErrorCode = "script-error"
	MerkleError ErrorCode = "merkle-error"

	UnknownError ErrorCode = "unknown-error"
)

type ErrorInfo struct {
	Code    ErrorCode // machine-readable ErrorCode enumeration
	Message string    // human-readable debug message
	wrapped error     // originating diagnostic, if any
}

func (e *ErrorInfo) Error() string {
	return e.Message
}

func (e *ErrorInfo) Unwrap() error {
	return e.wrapped
}

func NewErr(code ErrorCode, format string, args ...any) error {
	return &ErrorInfo{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapErr keeps the originating diagnostic reachable via errors.Is/As while
// classifying it under a store error code.
func WrapErr(code ErrorCode, err error, format string, args ...any) error {
	return &ErrorInfo{
		Code:    code,
		Message: fmt.Sprintf(format, args...) + ": " + err.Error(),
		wrapped: err,
	}
}

func IsError(err error, ofType ErrorCode) bool {
	var e *ErrorInfo
	if errors.As(err, &e) {
		return e.Code == ofType
	}
	return false
}

// CodeOf extracts the classification of a store error, or UnknownError for
// foreign errors.
func CodeOf(err error) ErrorCode {
	var e *ErrorInfo
	if errors.As(err, &e) {
		return e.Code
	}
	return UnknownError
}

func IsNotFoundError(err error) bool {
	switch CodeOf(err) {
	case AccountNotFound, AccountCodeNotFound, AccountStorageNotFound,
		VaultDataNotFound, NoteNotFound, BlockHeaderNotFound, ChainNodeNotFound:
		return true
	}
	return false
}

func IsAlreadyExistsError(err error) bool {
	return IsError(err, AlreadyExists)
}
