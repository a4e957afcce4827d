package cmd

import (
	"fmt"

	"github.com/dyike/patvec/internal/format"
	"github.com/spf13/cobra"
)

// status 命令 - 索引状态
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	status, err := p.Status()
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	return format.OutputStatus(status, format.Format(outputFormat))
}
