package embed

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/dyike/patvec/pkg/vectordb"
)

// MockProvider 模拟嵌入provider（用于测试和离线开发）
// 根据文本内容生成确定性的伪随机向量
type MockProvider struct {
	dimensions int

	// FailErr 非nil时所有调用返回该错误（用于测试fallback）
	FailErr error

	mu sync.Mutex

	// Calls 记录Embed调用次数，读取前需确保无并发调用
	Calls int
}

// NewMockProvider 创建模拟provider
func NewMockProvider(dimensions int) *MockProvider {
	return &MockProvider{dimensions: dimensions}
}

// Name 返回provider名称
func (m *MockProvider) Name() string {
	return "mock"
}

// Dimensions 返回向量维度
func (m *MockProvider) Dimensions() int {
	return m.dimensions
}

// Embed 生成确定性的伪随机向量
// 相同文本总是产生相同向量
func (m *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.FailErr != nil {
		return nil, m.FailErr
	}

	if text == "" {
		return nil, fmt.Errorf("empty text")
	}

	embedding := make([]float32, m.dimensions)

	// 使用文本内容的哈希作为种子
	seed := uint32(0)
	for _, c := range text {
		seed = seed*31 + uint32(c)
	}

	// 线性同余生成向量
	for i := range embedding {
		seed = seed*1103515245 + 12345
		embedding[i] = float32(int32(seed)) / float32(math.MaxInt32)
	}

	return vectordb.Normalize(embedding), nil
}

// EmbedBatch 批量生成嵌入
func (m *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))

	for i, text := range texts {
		embedding, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = embedding
	}

	return embeddings, nil
}
