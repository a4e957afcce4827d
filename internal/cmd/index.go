package cmd

import (
	"fmt"

	"github.com/dyike/patvec/pkg/patvec"
	"github.com/spf13/cobra"
)

// index 命令 - 批量索引目录
var indexCmd = &cobra.Command{
	Use:   "index <path>",
	Short: "Index a directory of patent text files",
	Long:  "Index every matching file under a directory and queue embeddings",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

var indexMask string

func init() {
	indexCmd.Flags().StringVarP(&indexMask, "mask", "m", "", "File mask (default **/*.{md,txt})")
}

func runIndex(cmd *cobra.Command, args []string) error {
	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	report, err := p.IndexDirectory(args[0], patvec.IndexOptions{Mask: indexMask})
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("Indexed %d file(s), skipped %d (%.1fs)\n",
		report.Indexed, report.Skipped, report.Elapsed.Seconds())
	fmt.Printf("%d embedding job(s) queued\n", len(report.JobIDs))
	return nil
}
