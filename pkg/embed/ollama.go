package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OllamaProvider 通过本地 Ollama HTTP API 生成嵌入
// 作为"本地模型"provider，无需API Key
type OllamaProvider struct {
	BaseURL    string
	Model      string
	Client     *http.Client
	dimensions int
}

// ollamaEmbedRequest Ollama /api/embeddings 请求
type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// ollamaEmbedResponse Ollama /api/embeddings 响应
type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewOllamaProvider 创建本地嵌入provider
func NewOllamaProvider(baseURL, model string, dimensions int) *OllamaProvider {
	if baseURL == "" {
		baseURL = getEnvOr("OLLAMA_BASE_URL", "http://localhost:11434")
	}
	if model == "" {
		model = "all-minilm" // 384维，适合默认配置
	}

	return &OllamaProvider{
		BaseURL:    baseURL,
		Model:      model,
		Client:     &http.Client{Timeout: 30 * time.Second},
		dimensions: dimensions,
	}
}

// Name 返回provider名称
func (p *OllamaProvider) Name() string {
	return "local/" + p.Model
}

// Dimensions 返回配置的向量维度
func (p *OllamaProvider) Dimensions() int {
	return p.dimensions
}

// Embed 生成单个文本的嵌入向量
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	req := ollamaEmbedRequest{
		Model:  p.Model,
		Prompt: text,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var embResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embResp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	// Ollama返回float64，转换为float32
	vec := make([]float32, len(embResp.Embedding))
	for i, v := range embResp.Embedding {
		vec[i] = float32(v)
	}

	return vec, nil
}

// EmbedBatch 批量生成嵌入向量
// Ollama embeddings API不支持批量，逐个请求
func (p *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))

	for i, text := range texts {
		vec, err := p.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}

	return vecs, nil
}
