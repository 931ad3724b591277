package services

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const documentsBucket = "documents"

// approximate characters per knowledge chunk; the real chunker lives in the
// ingestion pipeline, this records an estimate until re-indexing runs
const chunkSizeBytes = 1200

var allowedDocTypes = map[string]string{
	".pdf": "pdf",
	".txt": "txt",
}

type DocumentInfo struct {
	ID        string    `json:"id"`
	Filename  string    `json:"filename"`
	DocType   string    `json:"docType"`
	SizeBytes int64     `json:"sizeBytes"`
	Chunks    int       `json:"chunks"`
	CreatedAt time.Time `json:"createdAt"`
}

func DocTypeForFilename(filename string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	docType, ok := allowedDocTypes[ext]
	return docType, ok
}

func EnsureStoragePath(base string) (string, error) {
	path := filepath.Join(base, documentsBucket)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", err
	}
	return path, nil
}

// SaveDocument stores one uploaded file under the knowledge-base storage path
// and records it. uploadedBy is the acting user's id, passed in explicitly by
// the handler from the request's auth context.
func SaveDocument(db *sqlx.DB, basePath, filename, contentType, uploadedBy string, body io.Reader) (DocumentInfo, error) {
	docType, ok := DocTypeForFilename(filename)
	if !ok {
		return DocumentInfo{}, ErrBadRequest("Only PDF and TXT files are accepted")
	}
	var exists bool
	if err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM documents WHERE lower(filename) = $1)`, strings.ToLower(filename)); err != nil {
		return DocumentInfo{}, err
	}
	if exists {
		return DocumentInfo{}, ErrBadRequest("A document with this filename already exists")
	}

	docID := uuid.NewString()
	storageKey := docID
	bucketPath, err := EnsureStoragePath(basePath)
	if err != nil {
		return DocumentInfo{}, err
	}
	targetPath := filepath.Join(bucketPath, storageKey)

	file, err := os.Create(targetPath)
	if err != nil {
		return DocumentInfo{}, err
	}
	hasher := sha256.New()
	writer := io.MultiWriter(file, hasher)
	size, err := io.Copy(writer, body)
	_ = file.Close()
	if err != nil {
		_ = os.Remove(targetPath)
		return DocumentInfo{}, err
	}
	if size == 0 {
		_ = os.Remove(targetPath)
		return DocumentInfo{}, ErrBadRequest("File is empty")
	}
	sha := hex.EncodeToString(hasher.Sum(nil))
	chunks := EstimateChunks(size)
	now := time.Now().UTC()

	_, err = db.Exec(`
INSERT INTO documents (
  id, filename, doc_type, content_type, size_bytes, chunk_count,
  storage_key, sha256, uploaded_by, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`, docID, filename, docType, contentType, size, chunks, storageKey, sha, uploadedBy, now)
	if err != nil {
		_ = os.Remove(targetPath)
		return DocumentInfo{}, err
	}
	return DocumentInfo{
		ID:        docID,
		Filename:  filename,
		DocType:   docType,
		SizeBytes: size,
		Chunks:    chunks,
		CreatedAt: now,
	}, nil
}

func EstimateChunks(sizeBytes int64) int {
	if sizeBytes <= 0 {
		return 0
	}
	return int((sizeBytes + chunkSizeBytes - 1) / chunkSizeBytes)
}

func ListDocuments(db *sqlx.DB) ([]DocumentInfo, error) {
	rows := []struct {
		ID        string    `db:"id"`
		Filename  string    `db:"filename"`
		DocType   string    `db:"doc_type"`
		SizeBytes int64     `db:"size_bytes"`
		Chunks    int       `db:"chunk_count"`
		CreatedAt time.Time `db:"created_at"`
	}{}
	if err := db.Select(&rows, `
SELECT id, filename, doc_type, size_bytes, chunk_count, created_at
FROM documents
ORDER BY created_at DESC
`); err != nil {
		return nil, err
	}
	items := make([]DocumentInfo, 0, len(rows))
	for _, row := range rows {
		items = append(items, DocumentInfo{
			ID:        row.ID,
			Filename:  row.Filename,
			DocType:   row.DocType,
			SizeBytes: row.SizeBytes,
			Chunks:    row.Chunks,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, nil
}

// DeleteDocument removes the record and its stored file by filename. A
// filename that matches nothing is a clean not-found failure.
func DeleteDocument(db *sqlx.DB, basePath, filename string) error {
	var storageKey string
	err := db.Get(&storageKey, `SELECT storage_key FROM documents WHERE lower(filename) = $1`, strings.ToLower(filename))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound("Document not found")
	}
	if err != nil {
		return err
	}
	result, err := db.Exec(`DELETE FROM documents WHERE lower(filename) = $1`, strings.ToLower(filename))
	if err != nil {
		return err
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound("Document not found")
	}
	_ = os.Remove(filepath.Join(basePath, documentsBucket, storageKey))
	return nil
}
