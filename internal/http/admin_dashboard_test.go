package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"aero-backend-go/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocs(n int) []services.DocumentInfo {
	docs := make([]services.DocumentInfo, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, services.DocumentInfo{Filename: fmt.Sprintf("doc-%02d.pdf", i)})
	}
	return docs
}

func TestPreviewDocumentsBoundsListing(t *testing.T) {
	shown, hidden := previewDocuments(sampleDocs(11), 10)
	assert.Len(t, shown, 10)
	assert.Equal(t, 1, hidden)

	shown, hidden = previewDocuments(sampleDocs(25), 10)
	assert.Len(t, shown, 10)
	assert.Equal(t, 15, hidden)
}

func TestPreviewDocumentsExactLimitHasNoRemainder(t *testing.T) {
	shown, hidden := previewDocuments(sampleDocs(10), 10)
	assert.Len(t, shown, 10)
	assert.Zero(t, hidden)
}

func TestPreviewDocumentsShortList(t *testing.T) {
	shown, hidden := previewDocuments(sampleDocs(3), 10)
	assert.Len(t, shown, 3)
	assert.Zero(t, hidden)

	shown, hidden = previewDocuments(nil, 10)
	assert.Empty(t, shown)
	assert.Zero(t, hidden)
}

func TestPreviewDocumentsUnlimitedWhenLimitUnset(t *testing.T) {
	shown, hidden := previewDocuments(sampleDocs(30), 0)
	assert.Len(t, shown, 30)
	assert.Zero(t, hidden)
}

func TestMaintenanceActionsAreNotImplemented(t *testing.T) {
	server := &Server{}
	req := httptest.NewRequest(http.MethodPost, "/api/admin/knowledge-base/rebuild-index", nil)
	rec := httptest.NewRecorder()
	server.NotImplemented(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not implemented")
}

// A degraded analytics panel keeps the success path's shape: series are
// empty arrays, never null.
func TestDegradedAnalyticsPanelSerializesEmptySeries(t *testing.T) {
	panel := AnalyticsPanel{
		SystemAnalyticsSnapshot: emptySystemAnalytics(),
		Warning:                 "Unable to load usage analytics",
	}
	raw, err := json.Marshal(panel)
	require.NoError(t, err)

	body := string(raw)
	assert.Contains(t, body, `"dailyUsage":[]`)
	assert.Contains(t, body, `"queriesByRole":[]`)
	assert.Contains(t, body, `"performanceTimeline":[]`)
	assert.NotContains(t, body, "null")
}
