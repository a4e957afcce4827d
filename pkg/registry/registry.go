package registry

import (
	"context"
	"errors"
	"time"
)

// ErrFetchFailed 外部登记处请求失败（网络错误、非200响应、解析失败）
var ErrFetchFailed = errors.New("registry fetch failed")

// PatentRecord Espacenet著录项目数据
type PatentRecord struct {
	PatentNumber    string     `json:"patent_number"`
	Title           string     `json:"title"`
	Abstract        string     `json:"abstract"`
	FilingDate      *time.Time `json:"filing_date,omitempty"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	Applicants      []string   `json:"applicants,omitempty"`
	Inventors       []string   `json:"inventors,omitempty"`
	IPCClasses      []string   `json:"ipc_classes,omitempty"`
}

// SearchResult 登记处检索结果条目
type SearchResult struct {
	PatentNumber string  `json:"patent_number"`
	Title        string  `json:"title"`
	Abstract     string  `json:"abstract,omitempty"`
	Score        float64 `json:"score"`
}

// Client 外部专利登记处客户端
// 实现：EspacenetClient（真实OPS API）、MockClient（离线确定性数据）
type Client interface {
	// Fetch 按专利号获取著录数据
	Fetch(ctx context.Context, patentNumber string) (*PatentRecord, error)

	// Search 按关键词检索登记处
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}
