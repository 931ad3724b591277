package services

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsKnownRole(t *testing.T) {
	for _, code := range []string{"STUDENT", "TEACHER", "PARENT", "ADMIN"} {
		assert.True(t, IsKnownRole(code), code)
	}
	assert.False(t, IsKnownRole("student"))
	assert.False(t, IsKnownRole("WIZARD"))
	assert.False(t, IsKnownRole(""))
}

func TestRecordQueryEventValidation(t *testing.T) {
	err := RecordQueryEvent(nil, "user-1", "  ", "", 10, false)
	assert.EqualError(t, err, "topic is required")

	err = RecordQueryEvent(nil, "user-1", "Optics", "", -1, false)
	assert.EqualError(t, err, "responseTimeMs must not be negative")

	err = RecordQueryEvent(nil, "user-1", "Optics", "Impossible", 10, false)
	assert.EqualError(t, err, "difficulty must be Easy, Medium or Hard")
}

func TestAssignRoleUnknownRoleIsNotFound(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM roles WHERE code = $1`)).
		WithArgs("WIZARD").
		WillReturnError(sql.ErrNoRows)

	err := AssignRole(db, "user-1", "WIZARD")
	var svcErr ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 404, svcErr.Status)
}

func TestAssignRolePropagatesGatewayFailure(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM roles WHERE code = $1`)).
		WithArgs("ADMIN").
		WillReturnError(errors.New("connection refused"))

	err := AssignRole(db, "user-1", "ADMIN")
	var svcErr ServiceError
	assert.False(t, errors.As(err, &svcErr))
	assert.EqualError(t, err, "connection refused")
}
