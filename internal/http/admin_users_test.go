package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Validation failures must be rejected before any database work, so these
// run against a server with no database at all.
func TestCreateUserValidation(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		message string
	}{
		{
			name:    "missing username",
			payload: `{"fullName":"Ana Pop","password":"pw","confirmPassword":"pw","role":"STUDENT"}`,
			message: "Username is required",
		},
		{
			name:    "missing full name",
			payload: `{"username":"ana","password":"pw","confirmPassword":"pw","role":"STUDENT"}`,
			message: "Full name is required",
		},
		{
			name:    "missing password",
			payload: `{"username":"ana","fullName":"Ana Pop","role":"STUDENT"}`,
			message: "Password is required",
		},
		{
			name:    "password mismatch",
			payload: `{"username":"ana","fullName":"Ana Pop","password":"pw","confirmPassword":"other","role":"STUDENT"}`,
			message: "Passwords do not match",
		},
		{
			name:    "unknown role",
			payload: `{"username":"ana","fullName":"Ana Pop","password":"pw","confirmPassword":"pw","role":"WIZARD"}`,
			message: "Unknown role: WIZARD",
		},
		{
			name:    "malformed json",
			payload: `{`,
			message: "Invalid payload",
		},
	}

	server := &Server{}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/users", strings.NewReader(tc.payload))
			rec := httptest.NewRecorder()
			server.CreateUser(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
		})
	}
}

func TestDeleteUserRequiresUsername(t *testing.T) {
	server := &Server{}
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/%20", nil)
	rec := httptest.NewRecorder()
	server.DeleteUser(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func mockServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })
	return &Server{DB: sqlx.NewDb(mockDB, "sqlmock")}, mock
}

func deleteUserRequest(username string) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/api/admin/users/"+username, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("username", username)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// Submitting the same delete twice removes the row once; the second attempt
// is a clean not-found, never a repeat deletion or a crash.
func TestDeleteUserDoubleSubmit(t *testing.T) {
	server, mock := mockServer(t)
	deleteQuery := regexp.QuoteMeta(`DELETE FROM users WHERE lower(username) = $1`)
	mock.ExpectExec(deleteQuery).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(deleteQuery).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	rec := httptest.NewRecorder()
	server.DeleteUser(rec, deleteUserRequest("ghost"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ghost")

	rec = httptest.NewRecorder()
	server.DeleteUser(rec, deleteUserRequest("ghost"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserRollsBackOnRoleAssignmentFailure(t *testing.T) {
	server, mock := mockServer(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = $1)`)).
		WithArgs("ana").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM roles WHERE code = $1`)).
		WithArgs("TEACHER").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	payload := `{"username":"ana","fullName":"Ana Pop","password":"pw","confirmPassword":"pw","role":"TEACHER"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/users", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	server.CreateUser(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
