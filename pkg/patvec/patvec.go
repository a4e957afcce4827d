// Package patvec 提供专利语义相似度搜索引擎
package patvec

import (
	"context"
	"fmt"
	"os"

	"github.com/dyike/patvec/pkg/embed"
	"github.com/dyike/patvec/pkg/jobs"
	"github.com/dyike/patvec/pkg/registry"
	"github.com/dyike/patvec/pkg/store"
)

// PatVec 核心实例
type PatVec struct {
	store    *store.Store
	embedder *embed.Service
	registry *registry.Service
	pipeline *jobs.Pipeline
	cfg      Config
}

// New 创建新的PatVec实例
// 配置无效（不支持的维度、provider声明维度不符）时立即失败，
// 不延迟到第一次搜索
func New(cfg Config) (*PatVec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	providers, err := buildProviders(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	embedder, err := embed.NewService(cfg.EmbeddingModel, cfg.Dimensions, providers...)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}

	var client registry.Client
	if cfg.RegistryMode == "mock" {
		client = registry.NewMockClient()
	} else {
		client = registry.NewEspacenetClient(cfg.RegistryBaseURL, "")
	}
	reg := registry.NewService(st, client, cfg.RegistryTTL)

	pipeline := jobs.NewPipeline(st, embedder, jobs.Options{
		Workers:     cfg.Workers,
		MaxAttempts: cfg.MaxAttempts,
	})
	pipeline.Start(context.Background())

	return &PatVec{
		store:    st,
		embedder: embedder,
		registry: reg,
		pipeline: pipeline,
		cfg:      cfg,
	}, nil
}

// NewWithDB 使用指定数据库路径快速初始化
func NewWithDB(dbPath string) (*PatVec, error) {
	cfg := DefaultConfig()
	cfg.DBPath = dbPath
	return New(cfg)
}

// buildProviders 按配置顺序构造嵌入provider链
func buildProviders(cfg Config) ([]embed.Provider, error) {
	providers := make([]embed.Provider, 0, len(cfg.Providers))
	for _, name := range cfg.Providers {
		switch name {
		case "cloud":
			providers = append(providers,
				embed.NewOpenAIProvider("", os.Getenv("OPENAI_API_KEY"), cfg.EmbeddingModel, cfg.Dimensions))
		case "local":
			providers = append(providers,
				embed.NewOllamaProvider("", cfg.EmbeddingModel, cfg.Dimensions))
		case "mock":
			providers = append(providers, embed.NewMockProvider(cfg.Dimensions))
		default:
			return nil, fmt.Errorf("unknown provider %q", name)
		}
	}
	return providers, nil
}

// Close 排空嵌入队列并关闭实例
func (p *PatVec) Close() error {
	if p.pipeline != nil {
		if err := p.pipeline.Close(); err != nil {
			return fmt.Errorf("failed to close pipeline: %w", err)
		}
	}
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}

// Search 语义搜索：嵌入查询文本后在索引中找最相似的专利
// k<=0时用配置的默认值；threshold<0时用配置的默认阈值
func (p *PatVec) Search(ctx context.Context, query string, k int, threshold float64) ([]SearchResult, error) {
	if k <= 0 {
		k = p.cfg.TopK
	}
	if threshold < 0 {
		threshold = p.cfg.Threshold
	}

	vec, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	return p.store.TopK(vec, k, threshold)
}

// SearchTop5 返回相似度>=0.5的前5个专利
func (p *PatVec) SearchTop5(ctx context.Context, query string) ([]SearchResult, error) {
	return p.Search(ctx, query, 5, 0.5)
}

// SearchKeyword BM25关键词搜索
func (p *PatVec) SearchKeyword(query string, limit int) ([]KeywordResult, error) {
	return p.store.SearchKeyword(query, limit)
}

// AddPatent 添加专利并异步生成嵌入
// 返回专利ID和嵌入任务ID；任务完成前该专利不会出现在语义搜索结果中
func (p *PatVec) AddPatent(patent Patent) (patentID, jobID string, err error) {
	patentID, err = p.store.CreatePatent(patent)
	if err != nil {
		return "", "", err
	}

	jobID, err = p.pipeline.Enqueue(patentID)
	if err != nil {
		return patentID, "", err
	}
	return patentID, jobID, nil
}

// UpdatePatent 更新专利内容并重新生成嵌入
// 旧向量在新嵌入完成前仍然有效
func (p *PatVec) UpdatePatent(id string, patent Patent) (jobID string, err error) {
	if err := p.store.UpdatePatent(id, patent); err != nil {
		return "", err
	}
	return p.pipeline.Enqueue(id)
}

// GetPatent 按ID获取专利
func (p *PatVec) GetPatent(id string) (*Patent, error) {
	return p.store.GetPatent(id)
}

// GetPatentByNumber 按专利号获取专利
func (p *PatVec) GetPatentByNumber(number string) (*Patent, error) {
	return p.store.GetPatentByNumber(number)
}

// ListPatents 列出专利
func (p *PatVec) ListPatents(limit, offset int) ([]Patent, error) {
	return p.store.ListPatents(limit, offset)
}

// DeletePatent 删除专利及其向量
func (p *PatVec) DeletePatent(id string) error {
	return p.store.DeletePatent(id)
}

// ImportPatent 从外部登记处导入专利著录数据
// 同一专利号重复导入会更新已有记录；导入后自动排队生成嵌入
func (p *PatVec) ImportPatent(ctx context.Context, patentNumber string) (*ImportResult, error) {
	record, err := p.registry.GetOrFetch(ctx, patentNumber)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		PatentNumber: record.PatentNumber,
		Title:        record.Title,
	}

	patent := Patent{
		PatentNumber: record.PatentNumber,
		Title:        record.Title,
		Abstract:     record.Abstract,
		Content:      record.Abstract,
		FilingDate:   record.FilingDate,
	}

	existing, err := p.store.GetPatentByNumber(patentNumber)
	if err == nil {
		result.PatentID = existing.ID
		if err := p.store.UpdatePatent(existing.ID, patent); err != nil {
			return nil, err
		}
	} else {
		result.Created = true
		result.PatentID, err = p.store.CreatePatent(patent)
		if err != nil {
			return nil, err
		}
	}

	result.JobID, err = p.pipeline.Enqueue(result.PatentID)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// SearchRegistry 检索外部登记处（结果缓存1小时）
func (p *PatVec) SearchRegistry(ctx context.Context, query string, limit int) ([]registry.SearchResult, error) {
	return p.registry.Search(ctx, query, limit)
}

// ListJobs 列出嵌入任务，state为空时列出全部
func (p *PatVec) ListJobs(state store.JobState, limit int) ([]Job, error) {
	return p.store.ListJobs(state, limit)
}

// GetJob 获取任务
func (p *PatVec) GetJob(id string) (*Job, error) {
	return p.store.GetJob(id)
}

// CancelJob 取消尚未开始的任务
func (p *PatVec) CancelJob(id string) (bool, error) {
	return p.pipeline.Cancel(id)
}

// Status 返回引擎状态
func (p *PatVec) Status() (Status, error) {
	storeStatus, err := p.store.GetStatus()
	if err != nil {
		return Status{}, err
	}

	return Status{
		TotalPatents:   storeStatus.TotalPatents,
		EmbeddedCount:  storeStatus.EmbeddedCount,
		NeedsEmbedding: storeStatus.NeedsEmbedding,
		PendingJobs:    storeStatus.PendingJobs,
		FailedJobs:     storeStatus.FailedJobs,
		CacheEntries:   storeStatus.CacheEntries,
		VectorDim:      storeStatus.VectorDim,
		Model:          p.embedder.Info().Model,
		Provider:       p.embedder.ProviderName(),
		DBPath:         storeStatus.DBPath,
	}, nil
}
