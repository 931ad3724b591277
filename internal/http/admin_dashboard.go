package httpapi

import (
	"log"
	"net/http"

	"aero-backend-go/internal/services"
)

type AnalyticsPanel struct {
	services.SystemAnalyticsSnapshot
	Warning string `json:"warning,omitempty"`
}

type UsersPanel struct {
	UserListResponse
	Warning string `json:"warning,omitempty"`
}

type KnowledgeBasePanel struct {
	services.KnowledgeBaseSnapshot
	Documents   []services.DocumentInfo `json:"documents"`
	HiddenCount int                     `json:"hiddenCount"`
	TotalListed int                     `json:"totalListed"`
	Warning     string                  `json:"warning,omitempty"`
}

type PerformancePanel struct {
	services.PerformanceSnapshot
	Warning string `json:"warning,omitempty"`
}

type SecurityPanel struct {
	services.SecuritySnapshot
	Warning string `json:"warning,omitempty"`
}

type AdminDashboardResponse struct {
	Analytics     AnalyticsPanel     `json:"analytics"`
	Users         UsersPanel         `json:"users"`
	KnowledgeBase KnowledgeBasePanel `json:"knowledgeBase"`
	Performance   PerformancePanel   `json:"performance"`
	Security      SecurityPanel      `json:"security"`
}

// AdminDashboard composes the five panels. Each fetch is its own recovery
// boundary: a failing gateway degrades that one panel to a default snapshot
// with a warning, the siblings render from live data.
func (s *Server) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	resp := AdminDashboardResponse{}

	if analytics, err := services.SystemAnalyticsCached(s.DB, s.Cache, s.Config.MetricsSampleSeconds); err != nil {
		log.Printf("dashboard: analytics panel degraded: %v", err)
		resp.Analytics.SystemAnalyticsSnapshot = emptySystemAnalytics()
		resp.Analytics.Warning = "Unable to load usage analytics"
	} else {
		resp.Analytics.SystemAnalyticsSnapshot = analytics
	}

	if users, err := services.GetUserStats(s.DB); err != nil {
		log.Printf("dashboard: users panel degraded: %v", err)
		resp.Users.Warning = "Unable to load user statistics"
		resp.Users.RoleCounts = map[string]int{}
		resp.Users.Users = []services.UserRecord{}
	} else {
		resp.Users.RoleCounts = users.RoleCounts
		resp.Users.Users = users.Users
		resp.Users.HasUsers = len(users.Users) > 0
	}

	resp.KnowledgeBase = s.knowledgeBasePanel()

	if perf, err := services.GetPerformanceMetrics(s.DB, s.Cache); err != nil {
		log.Printf("dashboard: performance panel degraded: %v", err)
		resp.Performance.Warning = "Unable to load performance metrics"
	} else {
		resp.Performance.PerformanceSnapshot = perf
	}

	if security, err := services.GetSecurityMetrics(s.DB); err != nil {
		log.Printf("dashboard: security panel degraded: %v", err)
		resp.Security.Warning = "Unable to load security metrics"
		resp.Security.RecentEvents = []services.SecurityEventView{}
	} else {
		resp.Security.SecuritySnapshot = security
	}

	WriteJSON(w, http.StatusOK, resp)
}

// emptySystemAnalytics mirrors the success path's empty-state shape, so a
// degraded panel serializes its series as empty arrays rather than nulls.
func emptySystemAnalytics() services.SystemAnalyticsSnapshot {
	return services.SystemAnalyticsSnapshot{
		DailyUsage:          []services.DailyUsagePoint{},
		QueriesByRole:       []services.RoleQueryCount{},
		PerformanceTimeline: []services.TimelinePoint{},
	}
}

func (s *Server) knowledgeBasePanel() KnowledgeBasePanel {
	panel := KnowledgeBasePanel{Documents: []services.DocumentInfo{}}
	kb, err := services.GetKnowledgeBaseStats(s.DB)
	if err != nil {
		log.Printf("dashboard: knowledge base panel degraded: %v", err)
		panel.Warning = "Unable to load knowledge base statistics"
		return panel
	}
	panel.KnowledgeBaseSnapshot = kb
	docs, err := services.ListDocuments(s.DB)
	if err != nil {
		log.Printf("dashboard: document list degraded: %v", err)
		panel.Warning = "Unable to load document list"
		return panel
	}
	panel.Documents, panel.HiddenCount = previewDocuments(docs, s.Config.DocPreviewLimit)
	panel.TotalListed = len(docs)
	return panel
}

// previewDocuments bounds the listing to the first limit entries and counts
// the rest; exactly limit entries means no remainder indicator.
func previewDocuments(docs []services.DocumentInfo, limit int) ([]services.DocumentInfo, int) {
	if limit <= 0 || len(docs) <= limit {
		return docs, 0
	}
	return docs[:limit], len(docs) - limit
}

func (s *Server) SystemAnalytics(w http.ResponseWriter, r *http.Request) {
	snapshot, err := services.SystemAnalyticsCached(s.DB, s.Cache, s.Config.MetricsSampleSeconds)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

func (s *Server) KnowledgeBase(w http.ResponseWriter, r *http.Request) {
	panel := s.knowledgeBasePanel()
	if panel.Warning != "" {
		WriteError(w, http.StatusInternalServerError, panel.Warning)
		return
	}
	WriteJSON(w, http.StatusOK, panel)
}

func (s *Server) PerformanceMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot, err := services.GetPerformanceMetrics(s.DB, s.Cache)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

func (s *Server) SecurityMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot, err := services.GetSecurityMetrics(s.DB)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

// NotImplemented answers the maintenance actions that exist in the UI but
// have no backing operation yet.
func (s *Server) NotImplemented(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotImplemented, "Not implemented")
}
