package patvec

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// 支持的嵌入维度
const (
	DimSmall = 384
	DimLarge = 768
)

// Config PatVec配置
type Config struct {
	// DBPath 数据库路径
	DBPath string
	// EmbeddingModel 嵌入模型名
	EmbeddingModel string
	// Dimensions 向量维度（384或768）
	Dimensions int
	// Providers 嵌入provider顺序（cloud/local/mock），前面的优先
	Providers []string
	// TopK 默认返回结果数
	TopK int
	// Threshold 默认相似度阈值
	Threshold float64
	// RegistryMode 登记处模式（espacenet/mock）
	RegistryMode string
	// RegistryBaseURL 登记处API地址，空值使用Espacenet OPS默认地址
	RegistryBaseURL string
	// RegistryTTL 登记处元数据缓存有效期
	RegistryTTL time.Duration
	// Workers 嵌入流水线并行worker数
	Workers int
	// MaxAttempts 每个嵌入任务的最大尝试次数
	MaxAttempts int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	homeDir, _ := os.UserHomeDir()

	providers := []string{"local"}
	if os.Getenv("OPENAI_API_KEY") != "" {
		// 有API key时云端优先，本地兜底
		providers = []string{"cloud", "local"}
	}

	return Config{
		DBPath:         filepath.Join(homeDir, ".patvec", "patents.db"),
		EmbeddingModel: "all-minilm",
		Dimensions:     DimSmall,
		Providers:      providers,
		TopK:           5,
		Threshold:      0.5,
		RegistryMode:   "espacenet",
		RegistryTTL:    7 * 24 * time.Hour,
		Workers:        4,
		MaxAttempts:    3,
	}
}

// Validate 验证配置并填充默认值
func (c *Config) Validate() error {
	def := DefaultConfig()

	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if err := os.MkdirAll(filepath.Dir(c.DBPath), 0755); err != nil {
		return err
	}

	if c.EmbeddingModel == "" {
		c.EmbeddingModel = def.EmbeddingModel
	}
	if c.Dimensions == 0 {
		c.Dimensions = def.Dimensions
	}
	if c.Dimensions != DimSmall && c.Dimensions != DimLarge {
		return fmt.Errorf("unsupported dimensions %d (supported: %d, %d)",
			c.Dimensions, DimSmall, DimLarge)
	}

	if len(c.Providers) == 0 {
		c.Providers = def.Providers
	}
	for _, p := range c.Providers {
		if p != "cloud" && p != "local" && p != "mock" {
			return fmt.Errorf("unknown provider %q", p)
		}
	}

	if c.TopK <= 0 {
		c.TopK = def.TopK
	}
	if c.Threshold == 0 {
		c.Threshold = def.Threshold
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in [0,1], got %f", c.Threshold)
	}

	if c.RegistryMode == "" {
		c.RegistryMode = def.RegistryMode
	}
	if c.RegistryMode != "espacenet" && c.RegistryMode != "mock" {
		return fmt.Errorf("unknown registry mode %q", c.RegistryMode)
	}
	if c.RegistryTTL == 0 {
		c.RegistryTTL = def.RegistryTTL
	}

	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}

	return nil
}
