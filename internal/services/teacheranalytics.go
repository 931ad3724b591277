package services

import (
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/montanaflynn/stats"
)

type TopicStat struct {
	Topic         string `json:"topic"`
	Count         int    `json:"count"`
	AvgDifficulty string `json:"avgDifficulty"`
}

type DailyQuestionPoint struct {
	Date      string `json:"date"`
	Questions int    `json:"questions"`
}

type EngagementRow struct {
	Student   string  `json:"student"`
	Questions int     `json:"questions"`
	Topics    int     `json:"topics"`
	AvgScore  float64 `json:"avgScore"`
}

type DifficultyStat struct {
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
	AvgTimeMs  int    `json:"avgTimeMs"`
}

type TeacherBundle struct {
	TotalStudents          int                  `json:"totalStudents"`
	QuestionsToday         int                  `json:"questionsToday"`
	AvgResponseTimeMs      int                  `json:"avgResponseTimeMs"`
	CoveragePercent        int                  `json:"coveragePercent"`
	PopularTopics          []TopicStat          `json:"popularTopics"`
	DailyQuestions         []DailyQuestionPoint `json:"dailyQuestions"`
	StudentEngagement      []EngagementRow      `json:"studentEngagement"`
	DifficultyDistribution []DifficultyStat     `json:"difficultyDistribution"`
}

// HasData reports whether the bundle holds any activity at all; a bundle
// without it is rendered as a single "no data yet" notice, not as panels.
func (b TeacherBundle) HasData() bool {
	return b.TotalStudents > 0 || b.QuestionsToday > 0
}

// GetTeacherBundle composes the system analytics snapshot with the student
// head count into the teacher dashboard bundle. On fetch failure the caller
// decides whether to substitute DefaultTeacherBundle.
func GetTeacherBundle(db *sqlx.DB, cache *SnapshotCache, sampleSeconds int) (TeacherBundle, error) {
	system, err := SystemAnalyticsCached(db, cache, sampleSeconds)
	if err != nil {
		return TeacherBundle{}, err
	}
	userStats, err := GetUserStats(db)
	if err != nil {
		return TeacherBundle{}, err
	}
	return BuildTeacherBundle(system, userStats.RoleCounts["STUDENT"]), nil
}

// BuildTeacherBundle derives the teacher panels from aggregate inputs. The
// topic and difficulty fan-outs are synthetic fractions of today's query
// count; no per-topic classifier exists upstream yet, so the shares stay
// deterministic placeholders.
func BuildTeacherBundle(system SystemAnalyticsSnapshot, totalStudents int) TeacherBundle {
	queries := system.QueriesToday
	avgTime := system.AvgResponseTimeMs
	if avgTime == 0 {
		avgTime = 500
	}

	bundle := TeacherBundle{
		TotalStudents:     totalStudents,
		QuestionsToday:    queries,
		AvgResponseTimeMs: avgTime,
		CoveragePercent:   85,
		PopularTopics: []TopicStat{
			{Topic: "General Questions", Count: atLeastOne(queries / 2), AvgDifficulty: "Medium"},
			{Topic: "Educational Content", Count: atLeastOne(queries / 3), AvgDifficulty: "Easy"},
			{Topic: "Learning Materials", Count: atLeastOne(queries / 4), AvgDifficulty: "Medium"},
			{Topic: "Study Help", Count: atLeastOne(queries / 5), AvgDifficulty: "Hard"},
			{Topic: "Research Topics", Count: atLeastOne(queries / 6), AvgDifficulty: "Easy"},
		},
		StudentEngagement: []EngagementRow{
			{Student: "Sample Student", Questions: atLeastOne(queries / 4), Topics: 3, AvgScore: 85},
		},
		DifficultyDistribution: []DifficultyStat{
			{Difficulty: "Easy", Count: atLeastOne(queries / 3), AvgTimeMs: avgTime},
			{Difficulty: "Medium", Count: atLeastOne(queries / 2), AvgTimeMs: int(float64(avgTime) * 1.2)},
			{Difficulty: "Hard", Count: atLeastOne(queries / 4), AvgTimeMs: int(float64(avgTime) * 1.5)},
		},
	}

	if len(system.DailyUsage) > 0 {
		bundle.DailyQuestions = make([]DailyQuestionPoint, 0, len(system.DailyUsage))
		for _, point := range system.DailyUsage {
			bundle.DailyQuestions = append(bundle.DailyQuestions, DailyQuestionPoint{
				Date:      point.Date,
				Questions: point.Users,
			})
		}
	} else {
		bundle.DailyQuestions = syntheticDailySeries(queries, time.Now().UTC())
	}
	return bundle
}

// syntheticDailySeries backfills a five-day trail ending today when no real
// daily series exists yet.
func syntheticDailySeries(queriesToday int, now time.Time) []DailyQuestionPoint {
	offsets := []int{20, 15, 10, 5, 0}
	series := make([]DailyQuestionPoint, 0, len(offsets))
	for i, offset := range offsets {
		series = append(series, DailyQuestionPoint{
			Date:      now.AddDate(0, 0, -(len(offsets) - 1 - i)).Format("2006-01-02"),
			Questions: atLeastOne(queriesToday - offset),
		})
	}
	return series
}

// DefaultTeacherBundle is the substitute rendered when the aggregate fetch
// fails outright.
func DefaultTeacherBundle() TeacherBundle {
	return TeacherBundle{
		AvgResponseTimeMs: 500,
		PopularTopics:     []TopicStat{},
		DailyQuestions: []DailyQuestionPoint{
			{Date: time.Now().UTC().Format("2006-01-02"), Questions: 0},
		},
		StudentEngagement: []EngagementRow{},
		DifficultyDistribution: []DifficultyStat{
			{Difficulty: "Easy", Count: 0, AvgTimeMs: 500},
			{Difficulty: "Medium", Count: 0, AvgTimeMs: 600},
			{Difficulty: "Hard", Count: 0, AvgTimeMs: 800},
		},
	}
}

// RankTopics orders topics by question count, busiest first.
func RankTopics(topics []TopicStat) []TopicStat {
	ranked := append([]TopicStat(nil), topics...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

type TopicInsights struct {
	MostPopular     *TopicStat `json:"mostPopular,omitempty"`
	MostChallenging *TopicStat `json:"mostChallenging,omitempty"`
	TopicCount      int        `json:"topicCount"`
	TotalQuestions  int        `json:"totalQuestions"`
}

// SummarizeTopics reports the busiest topic, the first Hard-tagged topic if
// one exists, and the overall coverage figures.
func SummarizeTopics(topics []TopicStat) TopicInsights {
	insights := TopicInsights{TopicCount: len(topics)}
	for i := range topics {
		insights.TotalQuestions += topics[i].Count
		if insights.MostPopular == nil || topics[i].Count > insights.MostPopular.Count {
			popular := topics[i]
			insights.MostPopular = &popular
		}
		if insights.MostChallenging == nil && topics[i].AvgDifficulty == "Hard" {
			challenging := topics[i]
			insights.MostChallenging = &challenging
		}
	}
	return insights
}

type EngagementSummary struct {
	AvgQuestionsPerStudent float64 `json:"avgQuestionsPerStudent"`
	AvgTopicsPerStudent    float64 `json:"avgTopicsPerStudent"`
	ClassAverageScore      float64 `json:"classAverageScore"`
}

// SortEngagement returns the engagement list ordered by average score,
// best first.
func SortEngagement(rows []EngagementRow) []EngagementRow {
	sorted := append([]EngagementRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].AvgScore > sorted[j].AvgScore
	})
	return sorted
}

func SummarizeEngagement(rows []EngagementRow) EngagementSummary {
	if len(rows) == 0 {
		return EngagementSummary{}
	}
	questions := make([]float64, 0, len(rows))
	topics := make([]float64, 0, len(rows))
	scores := make([]float64, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, float64(row.Questions))
		topics = append(topics, float64(row.Topics))
		scores = append(scores, row.AvgScore)
	}
	avgQuestions, _ := stats.Mean(questions)
	avgTopics, _ := stats.Mean(topics)
	avgScore, _ := stats.Mean(scores)
	return EngagementSummary{
		AvgQuestionsPerStudent: avgQuestions,
		AvgTopicsPerStudent:    avgTopics,
		ClassAverageScore:      avgScore,
	}
}

type WeekdayAverage struct {
	Day     string   `json:"day"`
	Average *float64 `json:"average,omitempty"`
}

var weekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeeklyPattern averages question counts per weekday over the days that were
// actually observed. Weekdays without observations carry no average rather
// than a zero, but every weekday label is present, Monday through Sunday.
func WeeklyPattern(daily []DailyQuestionPoint) []WeekdayAverage {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, point := range daily {
		date, err := time.Parse("2006-01-02", point.Date)
		if err != nil {
			continue
		}
		day := date.Weekday().String()
		sums[day] += float64(point.Questions)
		counts[day]++
	}
	pattern := make([]WeekdayAverage, 0, len(weekdayOrder))
	for _, day := range weekdayOrder {
		entry := WeekdayAverage{Day: day}
		if counts[day] > 0 {
			avg := sums[day] / float64(counts[day])
			entry.Average = &avg
		}
		pattern = append(pattern, entry)
	}
	return pattern
}

func atLeastOne(value int) int {
	if value < 1 {
		return 1
	}
	return value
}
