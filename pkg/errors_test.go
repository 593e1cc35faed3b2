package veil

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorClassification(t *testing.T) {
	err := NewErr(NoteNotFound, "note %d not found", 42)
	require.True(t, IsError(err, NoteNotFound))
	require.False(t, IsError(err, AccountNotFound))
	require.Equal(t, NoteNotFound, CodeOf(err))
	require.True(t, IsNotFoundError(err))
	require.False(t, IsAlreadyExistsError(err))

	// classification survives further wrapping
	wrapped := fmt.Errorf("sync pass: %w", err)
	require.True(t, IsError(wrapped, NoteNotFound))
	require.True(t, IsNotFoundError(wrapped))
}

func TestWrapErrKeepsCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := WrapErr(DatabaseError, cause, "writing note")
	require.True(t, IsError(err, DatabaseError))
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "disk I/O error")
}

func TestCodeOfForeignError(t *testing.T) {
	require.Equal(t, UnknownError, CodeOf(errors.New("plain")))
	require.False(t, IsNotFoundError(errors.New("plain")))
}

func TestDataSourceErrorMapping(t *testing.T) {
	cases := []struct {
		code        ErrorCode
		kind        DataSourceKind
		recoverable bool
	}{
		{AccountNotFound, DataSourceAccountMissing, true},
		{BlockHeaderNotFound, DataSourceBlockMissing, true},
		{NoteNotFound, DataSourceNoteMissing, true},
		{DatabaseError, DataSourceInternal, false},
		{BadBinaryData, DataSourceInternal, false},
	}
	for _, c := range cases {
		src := NewErr(c.code, "boom")
		mapped := AsDataSourceError(src)
		require.Equal(t, c.kind, mapped.Kind, "code %s", c.code)
		require.Equal(t, c.recoverable, mapped.Recoverable(), "code %s", c.code)
		require.ErrorIs(t, mapped, src)
	}
}

func TestParseFilters(t *testing.T) {
	f, err := ParseNoteFilter("committed")
	require.NoError(t, err)
	require.Equal(t, NoteFilterCommitted, f)
	_, err = ParseNoteFilter("everything")
	require.True(t, IsError(err, QueryError))

	tf, err := ParseTransactionFilter("uncommitted")
	require.NoError(t, err)
	require.Equal(t, TransactionFilterUncommitted, tf)
	_, err = ParseTransactionFilter("everything")
	require.True(t, IsError(err, QueryError))
}
