package cmd

import (
	"context"

	"github.com/dyike/patvec/internal/tui"
	"github.com/spf13/cobra"
)

// browse 命令 - 交互式搜索浏览器
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Interactive search browser (TUI)",
	Args:  cobra.NoArgs,
	RunE:  runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	return tui.Run(context.Background(), p)
}
