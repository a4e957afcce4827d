package patvec

import (
	"time"

	"github.com/dyike/patvec/pkg/store"
)

// Patent 专利文档
type Patent = store.Patent

// SearchResult 相似度搜索结果
type SearchResult = store.SimilarityResult

// KeywordResult 关键词搜索结果
type KeywordResult = store.KeywordResult

// Job 嵌入任务
type Job = store.Job

// Status 引擎状态
type Status struct {
	TotalPatents   int
	EmbeddedCount  int
	NeedsEmbedding int
	PendingJobs    int
	FailedJobs     int
	CacheEntries   int
	VectorDim      int
	Model          string
	Provider       string
	DBPath         string
}

// ImportResult 登记处导入结果
type ImportResult struct {
	PatentID     string
	PatentNumber string
	Title        string
	JobID        string
	Created      bool // true=新建，false=更新已有记录
}

// IndexReport 目录索引报告
type IndexReport struct {
	Indexed  int
	Skipped  int
	Elapsed  time.Duration
	JobIDs   []string
}
