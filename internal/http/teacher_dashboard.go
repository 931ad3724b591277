package httpapi

import (
	"log"
	"net/http"

	"aero-backend-go/internal/services"
)

type TeacherDashboardResponse struct {
	NoData  bool                    `json:"no_data"`
	Bundle  *services.TeacherBundle `json:"bundle,omitempty"`
	Warning string                  `json:"warning,omitempty"`
}

type TeacherTopicsResponse struct {
	Topics   []services.TopicStat   `json:"topics"`
	Insights services.TopicInsights `json:"insights"`
}

type TeacherActivityResponse struct {
	Engagement []services.EngagementRow   `json:"engagement"`
	Summary    services.EngagementSummary `json:"summary"`
}

type TeacherTrendsResponse struct {
	ResponseTimeByDifficulty []services.DifficultyStat `json:"responseTimeByDifficulty"`
	WeeklyPattern            []services.WeekdayAverage `json:"weeklyPattern"`
}

// TeacherDashboard returns the full bundle, a bare no-data marker when the
// platform has no students and no questions yet, or the zeroed default
// bundle with a warning when the aggregate fetch fails.
func (s *Server) TeacherDashboard(w http.ResponseWriter, r *http.Request) {
	bundle, err := services.GetTeacherBundle(s.DB, s.Cache, s.Config.MetricsSampleSeconds)
	if err != nil {
		log.Printf("teacher dashboard degraded: %v", err)
		fallback := services.DefaultTeacherBundle()
		WriteJSON(w, http.StatusOK, TeacherDashboardResponse{
			Bundle:  &fallback,
			Warning: "Unable to load dashboard data",
		})
		return
	}
	if !bundle.HasData() {
		WriteJSON(w, http.StatusOK, TeacherDashboardResponse{NoData: true})
		return
	}
	WriteJSON(w, http.StatusOK, TeacherDashboardResponse{Bundle: &bundle})
}

func (s *Server) TeacherTopics(w http.ResponseWriter, r *http.Request) {
	bundle, err := services.GetTeacherBundle(s.DB, s.Cache, s.Config.MetricsSampleSeconds)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	ranked := services.RankTopics(bundle.PopularTopics)
	WriteJSON(w, http.StatusOK, TeacherTopicsResponse{
		Topics:   ranked,
		Insights: services.SummarizeTopics(bundle.PopularTopics),
	})
}

func (s *Server) TeacherActivity(w http.ResponseWriter, r *http.Request) {
	bundle, err := services.GetTeacherBundle(s.DB, s.Cache, s.Config.MetricsSampleSeconds)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, TeacherActivityResponse{
		Engagement: services.SortEngagement(bundle.StudentEngagement),
		Summary:    services.SummarizeEngagement(bundle.StudentEngagement),
	})
}

func (s *Server) TeacherTrends(w http.ResponseWriter, r *http.Request) {
	bundle, err := services.GetTeacherBundle(s.DB, s.Cache, s.Config.MetricsSampleSeconds)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, TeacherTrendsResponse{
		ResponseTimeByDifficulty: bundle.DifficultyDistribution,
		WeeklyPattern:            services.WeeklyPattern(bundle.DailyQuestions),
	})
}
