package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var RoleCodes = []string{"STUDENT", "TEACHER", "PARENT", "ADMIN"}

func IsKnownRole(code string) bool {
	for _, known := range RoleCodes {
		if code == known {
			return true
		}
	}
	return false
}

// EnsureRoles seeds the role table with the codes the platform recognizes.
func EnsureRoles(db *sqlx.DB) error {
	for _, code := range RoleCodes {
		var exists bool
		if err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM roles WHERE code = $1)`, code); err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := db.Exec(`INSERT INTO roles (id, code) VALUES ($1,$2)`, uuid.NewString(), code); err != nil {
			return err
		}
	}
	return nil
}

func FetchRoles(db *sqlx.DB, userID string) ([]string, error) {
	roles := []string{}
	err := db.Select(&roles, `
SELECT r.code
FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = $1
ORDER BY r.code
`, userID)
	return roles, err
}

// AssignRole works against a plain connection or an open transaction, so
// user creation can bind the role in the same unit of work as the insert.
func AssignRole(db sqlx.Ext, userID, roleCode string) error {
	var roleID string
	if err := sqlx.Get(db, &roleID, `SELECT id FROM roles WHERE code = $1`, roleCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound("Role not found")
		}
		return err
	}
	_, err := db.Exec(`
INSERT INTO user_roles (id, user_id, role_id, assigned_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT DO NOTHING
`, uuid.NewString(), userID, roleID, time.Now().UTC())
	return err
}

func TouchLastActive(db *sqlx.DB, userID string) error {
	_, err := db.Exec(`UPDATE users SET last_active_at = $1 WHERE id = $2`, time.Now().UTC(), userID)
	return err
}

func RecordSecurityEvent(db *sqlx.DB, kind, username, ip string) {
	_, _ = db.Exec(`
INSERT INTO security_events (id, kind, username, ip_address, created_at)
VALUES ($1,$2,$3,$4,$5)
`, uuid.NewString(), kind, nullIfBlank(username), nullIfBlank(ip), time.Now().UTC())
}

func nullIfBlank(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
