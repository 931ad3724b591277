package httpapi

import (
	"net/http"
	"strings"

	"aero-backend-go/internal/services"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 64 << 20

type DocumentUploadResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Chunks   int    `json:"chunks,omitempty"`
	Error    string `json:"error,omitempty"`
}

type DocumentUploadResponse struct {
	Processed int                    `json:"processed"`
	Failed    int                    `json:"failed"`
	Results   []DocumentUploadResult `json:"results"`
}

// UploadDocuments accepts a multipart batch and processes each file
// independently; one bad file does not abort the rest.
func (s *Server) UploadDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart payload")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteError(w, http.StatusBadRequest, "No files provided")
		return
	}
	actingUser := CurrentUserID(r)
	resp := DocumentUploadResponse{Results: make([]DocumentUploadResult, 0, len(files))}
	for _, header := range files {
		result := DocumentUploadResult{Filename: header.Filename}
		if _, ok := services.DocTypeForFilename(header.Filename); !ok {
			result.Status = "rejected"
			result.Error = "Only .pdf and .txt files are supported"
			resp.Failed++
			resp.Results = append(resp.Results, result)
			continue
		}
		file, err := header.Open()
		if err != nil {
			result.Status = "failed"
			result.Error = "Unable to read file"
			resp.Failed++
			resp.Results = append(resp.Results, result)
			continue
		}
		info, err := services.SaveDocument(s.DB, s.Config.DocStoragePath, header.Filename, header.Header.Get("Content-Type"), actingUser, file)
		_ = file.Close()
		if err != nil {
			result.Status = "failed"
			result.Error = err.Error()
			resp.Failed++
		} else {
			result.Status = "processed"
			result.Chunks = info.Chunks
			resp.Processed++
		}
		resp.Results = append(resp.Results, result)
	}
	s.Cache.Invalidate("snapshot:system-analytics")
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	filename := strings.TrimSpace(chi.URLParam(r, "filename"))
	if filename == "" {
		WriteError(w, http.StatusBadRequest, "Filename is required")
		return
	}
	if err := services.DeleteDocument(s.DB, s.Config.DocStoragePath, filename); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"deleted": filename})
}
