package store

import "time"

// Patent store内部使用的专利文档类型
type Patent struct {
	ID           string
	PatentNumber string
	Title        string
	Abstract     string
	Content      string
	FilingDate   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SimilarityResult 相似度搜索结果
type SimilarityResult struct {
	PatentID     string
	PatentNumber string
	Title        string
	Score        float64 // 余弦相似度 [0,1]
	Rank         int     // 从1开始
	EmbeddedAt   time.Time
}

// KeywordResult BM25关键词搜索结果
type KeywordResult struct {
	PatentID     string
	PatentNumber string
	Title        string
	Score        float64
	Snippet      string
}

// JobState 嵌入任务状态
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// Job 嵌入任务记录
type Job struct {
	ID         string
	PatentID   string
	State      JobState
	Attempts   int
	LastError  string
	EnqueuedAt time.Time
	UpdatedAt  time.Time
}

// Status 索引状态
type Status struct {
	TotalPatents   int
	EmbeddedCount  int
	NeedsEmbedding int
	PendingJobs    int
	FailedJobs     int
	CacheEntries   int
	VectorDim      int
	DBPath         string
}
