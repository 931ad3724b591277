package models

import "time"

type User struct {
	ID           string     `db:"id"`
	Username     string     `db:"username"`
	FullName     string     `db:"full_name"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Status       string     `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastActiveAt *time.Time `db:"last_active_at"`
}

type Role struct {
	ID   string `db:"id"`
	Code string `db:"code"`
}

type Document struct {
	ID          string    `db:"id"`
	Filename    string    `db:"filename"`
	DocType     string    `db:"doc_type"`
	ContentType string    `db:"content_type"`
	SizeBytes   int64     `db:"size_bytes"`
	ChunkCount  int       `db:"chunk_count"`
	StorageKey  string    `db:"storage_key"`
	Sha256      *string   `db:"sha256"`
	UploadedBy  *string   `db:"uploaded_by"`
	CreatedAt   time.Time `db:"created_at"`
}

type QueryEvent struct {
	ID             string    `db:"id"`
	UserID         *string   `db:"user_id"`
	Topic          *string   `db:"topic"`
	Difficulty     *string   `db:"difficulty"`
	ResponseTimeMs int       `db:"response_time_ms"`
	CacheHit       bool      `db:"cache_hit"`
	CreatedAt      time.Time `db:"created_at"`
}

type SecurityEvent struct {
	ID        string    `db:"id"`
	Kind      string    `db:"kind"`
	Username  *string   `db:"username"`
	IPAddress *string   `db:"ip_address"`
	CreatedAt time.Time `db:"created_at"`
}

type ServerMetricSample struct {
	ID                string    `db:"id"`
	CapturedAt        time.Time `db:"captured_at"`
	HeapUsedBytes     int64     `db:"heap_used_bytes"`
	HeapMaxBytes      int64     `db:"heap_max_bytes"`
	SystemMemoryTotal int64     `db:"system_memory_total_bytes"`
	SystemMemoryUsed  int64     `db:"system_memory_used_bytes"`
	DiskTotalBytes    int64     `db:"disk_total_bytes"`
	DiskUsedBytes     int64     `db:"disk_used_bytes"`
	NetworkBytesSent  int64     `db:"network_bytes_sent"`
	NetworkBytesRecv  int64     `db:"network_bytes_recv"`
	ProcessCpuLoad    float64   `db:"process_cpu_load"`
	SystemCpuLoad     float64   `db:"system_cpu_load"`
}
