package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"aero-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type UserListResponse struct {
	RoleCounts map[string]int        `json:"roleCounts"`
	Users      []services.UserRecord `json:"users"`
	HasUsers   bool                  `json:"hasUsers"`
}

type AdminUserCreateRequest struct {
	Username        string `json:"username"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	snapshot, err := services.GetUserStats(s.DB)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, UserListResponse{
		RoleCounts: snapshot.RoleCounts,
		Users:      snapshot.Users,
		HasUsers:   len(snapshot.Users) > 0,
	})
}

// CreateUser validates the whole request locally before touching the
// database, so a mismatched confirmation or an unknown role never costs a
// round trip.
func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req AdminUserCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	fullName := strings.TrimSpace(req.FullName)
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	switch {
	case username == "":
		WriteError(w, http.StatusBadRequest, "Username is required")
		return
	case fullName == "":
		WriteError(w, http.StatusBadRequest, "Full name is required")
		return
	case strings.TrimSpace(req.Password) == "":
		WriteError(w, http.StatusBadRequest, "Password is required")
		return
	case req.Password != req.ConfirmPassword:
		WriteError(w, http.StatusBadRequest, "Passwords do not match")
		return
	case !services.IsKnownRole(role):
		WriteError(w, http.StatusBadRequest, "Unknown role: "+req.Role)
		return
	}
	var exists bool
	if err := s.DB.Get(&exists, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(username) = $1)`, username); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if exists {
		WriteError(w, http.StatusBadRequest, "User already exists")
		return
	}
	hash, err := s.Tokens.HashPassword(req.Password)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	userID := uuid.NewString()
	now := time.Now().UTC()
	tx, err := s.DB.Beginx()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	_, err = tx.Exec(`
INSERT INTO users (id, username, full_name, email, password_hash, status, created_at, updated_at)
VALUES ($1,$2,$3,NULLIF($4,''),$5,'ACTIVE',$6,$6)
`, userID, username, fullName, strings.TrimSpace(req.Email), hash, now)
	if err != nil {
		_ = tx.Rollback()
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	// the role binding belongs to the same unit of work: a user row must
	// never outlive a failed assignment
	if err := services.AssignRole(tx, userID, role); err != nil {
		_ = tx.Rollback()
		WriteServiceError(w, err)
		return
	}
	if err := tx.Commit(); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{
		"userId":   userID,
		"username": username,
		"role":     role,
	})
}

// DeleteUser removes a user by username. Deleting a username that no longer
// exists reports not-found instead of pretending success, so a double submit
// surfaces cleanly.
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "username")))
	if username == "" {
		WriteError(w, http.StatusBadRequest, "Username is required")
		return
	}
	result, err := s.DB.Exec(`DELETE FROM users WHERE lower(username) = $1`, username)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		WriteError(w, http.StatusNotFound, "User not found")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"deleted": username})
}

func (s *Server) ExportUsers(w http.ResponseWriter, r *http.Request) {
	snapshot, err := services.GetUserStats(s.DB)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	book := excelize.NewFile()
	defer func() { _ = book.Close() }()
	sheet := book.GetSheetName(0)
	headers := []string{"Username", "Full Name", "Email", "Role", "Last Active", "Active"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = book.SetCellValue(sheet, cell, header)
	}
	for i, user := range snapshot.Users {
		lastActive := ""
		if user.LastActive != nil {
			lastActive = user.LastActive.Format("2006-01-02 15:04")
		}
		values := []interface{}{user.Username, user.FullName, user.Email, user.Role, lastActive, user.IsActive}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = book.SetCellValue(sheet, cell, value)
		}
	}
	filename := fmt.Sprintf("users-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := book.Write(w); err != nil {
		return
	}
}
