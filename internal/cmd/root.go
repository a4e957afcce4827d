package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/dyike/patvec/internal/config"
	"github.com/dyike/patvec/pkg/patvec"
	"github.com/spf13/cobra"
)

var (
	// DefaultDBPath 默认数据库路径
	DefaultDBPath string

	// Version 版本号
	Version string

	// BuildTime 构建时间
	BuildTime string

	// 全局标志
	dbPath       string
	outputFormat string
	mockFlag     bool
)

// printUsageTree 从 cobra 命令树自动生成usage
func printUsageTree(root *cobra.Command) {
	var lines []string
	maxLen := 0

	// 收集所有命令行
	var collect func(cmd *cobra.Command, prefix string)
	collect = func(cmd *cobra.Command, prefix string) {
		for _, sub := range cmd.Commands() {
			if sub.Hidden || sub.Name() == "help" || sub.Name() == "completion" {
				continue
			}
			if sub.HasSubCommands() {
				collect(sub, prefix+sub.Name()+" ")
			} else {
				use := prefix + sub.Use
				if len(use) > maxLen {
					maxLen = len(use)
				}
				lines = append(lines, use+"\t"+sub.Short)
			}
		}
	}
	collect(root, root.Name()+" ")

	// 对齐输出
	fmt.Println("Usage:")
	for _, line := range lines {
		parts := strings.SplitN(line, "\t", 2)
		padding := maxLen - len(parts[0]) + 2
		if padding < 2 {
			padding = 2
		}
		fmt.Printf("  %s%s- %s\n", parts[0], strings.Repeat(" ", padding), parts[1])
	}
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:     "patvec",
	Short:   "Patent semantic similarity search",
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		printUsageTree(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// 全局标志
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", DefaultDBPath, "Database path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "text", "Output format (text|json|csv|md|xml)")
	rootCmd.PersistentFlags().BoolVar(&mockFlag, "mock", false, "Use offline mock providers (no network)")

	// 添加子命令
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(ksearchCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(registryCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(browseCmd)

	// 版本模板
	rootCmd.SetVersionTemplate(fmt.Sprintf("patvec version %s (built %s)\n", Version, BuildTime))
}

// getPatVec 获取PatVec实例（辅助函数）
func getPatVec() (*patvec.PatVec, error) {
	fileCfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg := patvec.DefaultConfig()
	cfg.EmbeddingModel = fileCfg.Embedding.Model
	cfg.Dimensions = fileCfg.Embedding.Dimensions
	cfg.Providers = fileCfg.Embedding.Providers
	cfg.RegistryMode = fileCfg.Registry.Mode
	cfg.RegistryBaseURL = fileCfg.Registry.BaseURL
	cfg.RegistryTTL = time.Duration(fileCfg.Registry.TTLHours) * time.Hour
	cfg.TopK = fileCfg.Search.TopK
	cfg.Threshold = fileCfg.Search.Threshold
	cfg.Workers = fileCfg.Workers
	cfg.MaxAttempts = fileCfg.MaxAttempts

	// 命令行标志优先于配置文件
	if dbPath != "" {
		cfg.DBPath = dbPath
	} else if p, err := fileCfg.GetDatabasePath(); err == nil && p != "" {
		cfg.DBPath = p
	}

	if mockFlag {
		cfg.Providers = []string{"mock"}
		cfg.RegistryMode = "mock"
	}

	p, err := patvec.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	return p, nil
}
