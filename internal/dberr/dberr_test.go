package dberr

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslateNil(t *testing.T) {
	assert.NoError(t, Translate(nil))
}

func TestTranslateGormErrors(t *testing.T) {
	assert.ErrorIs(t, Translate(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, Translate(gorm.ErrDuplicatedKey), ErrConflict)
}

func TestTranslateWrappedGormError(t *testing.T) {
	wrapped := errors.Join(errors.New("query failed"), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, Translate(wrapped), ErrNotFound)
}

func TestTranslatePostgresCodes(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"42501", ErrPermissionDenied},
		{"42P17", ErrPermissionDenied},
		{"23505", ErrConflict},
	}
	for _, tc := range cases {
		err := Translate(&pgconn.PgError{Code: tc.code, Message: "denied"})
		assert.ErrorIs(t, err, tc.want, "code %s", tc.code)
	}
}

func TestTranslateUnknownPostgresCode(t *testing.T) {
	err := Translate(&pgconn.PgError{Code: "57014", Message: "canceling statement"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrPermissionDenied)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "57014")
	assert.Contains(t, err.Error(), "canceling statement", "raw text must survive translation")
}

func TestTranslateUnknownError(t *testing.T) {
	err := Translate(errors.New("connection reset"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestUserMessages(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "The record no longer exists", UserMessage(ErrNotFound))
	assert.Equal(t, "You do not have permission to perform this action", UserMessage(ErrPermissionDenied))
	assert.Equal(t, "A record with the same identity already exists", UserMessage(ErrConflict))
	assert.Equal(t, "The record has not been saved yet", UserMessage(ErrInvalidKey))
}

func TestUserMessageSeesThroughWrapping(t *testing.T) {
	wrapped := Translate(gorm.ErrRecordNotFound)
	assert.Equal(t, "The record no longer exists", UserMessage(wrapped))
}
