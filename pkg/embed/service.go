package embed

import (
	"context"
	"fmt"
	log "log/slog"
	"strings"

	"github.com/dyike/patvec/pkg/vectordb"
)

// Service 嵌入服务
// 按顺序尝试providers（primary在前，fallback在后），每次调用都从primary
// 重新开始——失败切换不具有粘性
type Service struct {
	providers []Provider
	info      Info
}

// NewService 创建嵌入服务
// dimensions 必须与每个provider声明的维度一致，否则启动即失败
func NewService(modelName string, dimensions int, providers ...Provider) (*Service, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("at least one provider required")
	}

	if dimensions != 384 && dimensions != 768 {
		return nil, fmt.Errorf("unsupported embedding dimension: %d (must be 384 or 768)", dimensions)
	}

	// 启动时校验维度，避免运行期才发现配置错误
	for _, p := range providers {
		if p.Dimensions() != dimensions {
			return nil, fmt.Errorf("%w: provider %s declares %d, configured %d",
				vectordb.ErrDimensionMismatch, p.Name(), p.Dimensions(), dimensions)
		}
	}

	return &Service{
		providers: providers,
		info: Info{
			Dimensions: dimensions,
			Model:      modelName,
			MaxTokens:  512,
		},
	}, nil
}

// Embed 生成文本的嵌入向量
// 空文本（trim后）直接返回ErrInvalidInput，不发起任何provider调用
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidInput)
	}

	// 截断过长的文本
	text = truncateText(text, s.info.MaxTokens)

	var lastErr error
	for i, p := range s.providers {
		embedding, err := p.Embed(ctx, text)
		if err != nil {
			lastErr = err
			if i+1 < len(s.providers) {
				log.Warn("embedding provider failed, trying fallback",
					"provider", p.Name(), "error", err)
			}
			continue
		}

		// 验证维度：即使provider调用"成功"，宽度不对也不能入库
		if len(embedding) != s.info.Dimensions {
			return nil, fmt.Errorf("%w: provider %s returned %d, expected %d",
				vectordb.ErrDimensionMismatch, p.Name(), len(embedding), s.info.Dimensions)
		}

		return vectordb.Normalize(embedding), nil
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// EmbedBatch 批量生成嵌入向量
func (s *Service) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: empty texts", ErrInvalidInput)
	}

	truncated := make([]string, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: empty text at %d", ErrInvalidInput, i)
		}
		truncated[i] = truncateText(text, s.info.MaxTokens)
	}

	var lastErr error
	for i, p := range s.providers {
		embeddings, err := p.EmbedBatch(ctx, truncated)
		if err != nil {
			lastErr = err
			if i+1 < len(s.providers) {
				log.Warn("batch embedding provider failed, trying fallback",
					"provider", p.Name(), "error", err)
			}
			continue
		}

		for j := range embeddings {
			if len(embeddings[j]) != s.info.Dimensions {
				return nil, fmt.Errorf("%w: provider %s returned %d, expected %d",
					vectordb.ErrDimensionMismatch, p.Name(), len(embeddings[j]), s.info.Dimensions)
			}
			embeddings[j] = vectordb.Normalize(embeddings[j])
		}

		return embeddings, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// Info 返回嵌入元信息
func (s *Service) Info() Info {
	return s.info
}

// ProviderName 返回primary provider名称
func (s *Service) ProviderName() string {
	return s.providers[0].Name()
}

// truncateText 截断文本到指定token数
// 简化实现：按字符数估算，约4字符/token
func truncateText(text string, maxTokens int) string {
	maxChars := maxTokens * 4
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}
