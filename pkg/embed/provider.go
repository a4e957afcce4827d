// Package embed 提供嵌入向量生成能力
// 支持本地模型（Ollama）和云端模型（OpenAI兼容API）两种provider
package embed

import (
	"context"
	"errors"
)

// 嵌入相关错误
var (
	// ErrInvalidInput 输入文本无效（trim后为空），不会发起provider调用
	ErrInvalidInput = errors.New("invalid input text")

	// ErrUnavailable 所有配置的provider都失败
	ErrUnavailable = errors.New("embedding unavailable")
)

// Provider 嵌入向量生成接口
type Provider interface {
	// Embed 生成文本的嵌入向量
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch 批量生成嵌入向量
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions 返回provider输出的向量维度
	Dimensions() int

	// Name 返回provider名称（用于日志和嵌入元数据）
	Name() string
}

// ProviderKind provider类型
type ProviderKind string

const (
	// ProviderLocal 本地模型（Ollama HTTP API）
	ProviderLocal ProviderKind = "local"
	// ProviderCloud 云端模型（OpenAI兼容API）
	ProviderCloud ProviderKind = "cloud"
	// ProviderMock 模拟provider（测试和离线开发）
	ProviderMock ProviderKind = "mock"
)

// Info 嵌入元信息
type Info struct {
	Dimensions int    // 向量维度
	Model      string // 模型名称
	MaxTokens  int    // 最大token数
}
