package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// OpenAIProvider 封装 OpenAI 兼容的 /embeddings API 调用
// 支持 OpenAI、Deepseek 等云端服务
type OpenAIProvider struct {
	BaseURL    string
	APIKey     string
	Model      string
	Client     *http.Client
	dimensions int
}

// embeddingRequest OpenAI Embeddings 请求
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingResponse OpenAI Embeddings 响应
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAIProvider 创建云端嵌入provider
// baseURL为空时自动从环境变量读取配置:
//   - OPENAI_API_KEY / OPENAI_BASE_URL
func NewOpenAIProvider(baseURL, apiKey, model string, dimensions int) *OpenAIProvider {
	if baseURL == "" {
		baseURL = getEnvOr("OPENAI_BASE_URL", "https://api.openai.com/v1")
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = "text-embedding-3-small"
	}

	return &OpenAIProvider{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		Client:     &http.Client{Timeout: 30 * time.Second},
		dimensions: dimensions,
	}
}

// Name 返回provider名称
func (p *OpenAIProvider) Name() string {
	return "cloud/" + p.Model
}

// Dimensions 返回配置的向量维度
func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

// Embed 生成单个文本的嵌入向量
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch 批量生成嵌入向量
// 结果顺序与输入一致
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	req := embeddingRequest{
		Model: p.Model,
		Input: texts,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if p.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if len(embResp.Data) != len(texts) {
		return nil, fmt.Errorf("unexpected embedding count: got %d, expected %d",
			len(embResp.Data), len(texts))
	}

	// 按index还原顺序（API不保证按输入顺序返回）
	vecs := make([][]float32, len(texts))
	for _, d := range embResp.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			return nil, fmt.Errorf("invalid embedding index: %d", d.Index)
		}
		vecs[d.Index] = d.Embedding
	}

	return vecs, nil
}

func getEnvOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
