package services

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocTypeForFilename(t *testing.T) {
	docType, ok := DocTypeForFilename("notes.pdf")
	assert.True(t, ok)
	assert.Equal(t, "pdf", docType)

	docType, ok = DocTypeForFilename("README.TXT")
	assert.True(t, ok)
	assert.Equal(t, "txt", docType)

	_, ok = DocTypeForFilename("slides.pptx")
	assert.False(t, ok)
	_, ok = DocTypeForFilename("noextension")
	assert.False(t, ok)
}

func TestEstimateChunks(t *testing.T) {
	assert.Equal(t, 0, EstimateChunks(0))
	assert.Equal(t, 1, EstimateChunks(1))
	assert.Equal(t, 1, EstimateChunks(1200))
	assert.Equal(t, 2, EstimateChunks(1201))
	assert.Equal(t, 100, EstimateChunks(120000))
}

func mockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

// Deleting removes the row and the stored file; a subsequent listing no
// longer carries the filename.
func TestDeleteDocumentRoundTrip(t *testing.T) {
	db, mock := mockDB(t)
	base := t.TempDir()
	bucket := filepath.Join(base, "documents")
	require.NoError(t, os.MkdirAll(bucket, 0755))
	stored := filepath.Join(bucket, "key-1")
	require.NoError(t, os.WriteFile(stored, []byte("content"), 0644))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT storage_key FROM documents WHERE lower(filename) = $1`)).
		WithArgs("notes.pdf").
		WillReturnRows(sqlmock.NewRows([]string{"storage_key"}).AddRow("key-1"))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM documents WHERE lower(filename) = $1`)).
		WithArgs("notes.pdf").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, DeleteDocument(db, base, "Notes.pdf"))
	_, err := os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, filename, doc_type, size_bytes, chunk_count, created_at`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "filename", "doc_type", "size_bytes", "chunk_count", "created_at"}))
	docs, err := ListDocuments(db)
	require.NoError(t, err)
	assert.Empty(t, docs)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteDocumentMissingIsNotFound(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT storage_key FROM documents`)).
		WithArgs("ghost.pdf").
		WillReturnError(sql.ErrNoRows)

	err := DeleteDocument(db, t.TempDir(), "ghost.pdf")
	var svcErr ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 404, svcErr.Status)
}

// A connection failure is a gateway failure, not a clean not-found.
func TestDeleteDocumentPropagatesGatewayFailure(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT storage_key FROM documents`)).
		WithArgs("notes.pdf").
		WillReturnError(errors.New("connection refused"))

	err := DeleteDocument(db, t.TempDir(), "notes.pdf")
	var svcErr ServiceError
	assert.False(t, errors.As(err, &svcErr))
	assert.EqualError(t, err, "connection refused")
}
