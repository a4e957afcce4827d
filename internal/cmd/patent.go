package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/dyike/patvec/internal/format"
	"github.com/dyike/patvec/pkg/patvec"
	"github.com/spf13/cobra"
)

// add 命令 - 添加专利
var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a patent and queue its embedding",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

// ls 命令 - 列出专利
var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List patents",
	Args:  cobra.NoArgs,
	RunE:  runLs,
}

// get 命令 - 专利详情
var getCmd = &cobra.Command{
	Use:   "get <id-or-number>",
	Short: "Show patent details",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// rm 命令 - 删除专利
var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a patent and its vector",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

var (
	addNumber     string
	addAbstract   string
	addContent    string
	addFile       string
	addFilingDate string
	lsLimit       int
	lsOffset      int
	fullContent   bool
)

func init() {
	addCmd.Flags().StringVar(&addNumber, "number", "", "Patent number (e.g. EP1234567)")
	addCmd.Flags().StringVar(&addAbstract, "abstract", "", "Patent abstract")
	addCmd.Flags().StringVar(&addContent, "content", "", "Patent body text")
	addCmd.Flags().StringVar(&addFile, "file", "", "Read body text from file")
	addCmd.Flags().StringVar(&addFilingDate, "filed", "", "Filing date (YYYY-MM-DD)")

	lsCmd.Flags().IntVarP(&lsLimit, "num", "n", 50, "Number of patents")
	lsCmd.Flags().IntVar(&lsOffset, "offset", 0, "Offset for pagination")

	getCmd.Flags().BoolVar(&fullContent, "full", false, "Show full content")
}

func runAdd(cmd *cobra.Command, args []string) error {
	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	patent := patvec.Patent{
		PatentNumber: addNumber,
		Title:        args[0],
		Abstract:     addAbstract,
		Content:      addContent,
	}

	if addFile != "" {
		data, err := os.ReadFile(addFile)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		patent.Content = string(data)
	}

	if addFilingDate != "" {
		filed, err := time.Parse("2006-01-02", addFilingDate)
		if err != nil {
			return fmt.Errorf("invalid filing date: %w", err)
		}
		patent.FilingDate = &filed
	}

	patentID, jobID, err := p.AddPatent(patent)
	if err != nil {
		return fmt.Errorf("failed to add patent: %w", err)
	}

	fmt.Printf("Added patent %s\n", patentID)
	fmt.Printf("Embedding job %s queued\n", jobID)
	return nil
}

func runLs(cmd *cobra.Command, args []string) error {
	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	patents, err := p.ListPatents(lsLimit, lsOffset)
	if err != nil {
		return fmt.Errorf("failed to list patents: %w", err)
	}

	if len(patents) == 0 {
		fmt.Println("No patents indexed")
		return nil
	}

	return format.OutputPatentList(patents, format.Format(outputFormat))
}

func runGet(cmd *cobra.Command, args []string) error {
	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	// 先按ID查，再按专利号查
	patent, err := p.GetPatent(args[0])
	if err != nil {
		patent, err = p.GetPatentByNumber(args[0])
		if err != nil {
			return fmt.Errorf("patent not found: %s", args[0])
		}
	}

	return format.OutputPatentDetail(patent, format.Format(outputFormat), fullContent)
}

func runRm(cmd *cobra.Command, args []string) error {
	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.DeletePatent(args[0]); err != nil {
		return fmt.Errorf("failed to delete patent: %w", err)
	}

	fmt.Printf("Deleted patent %s\n", args[0])
	return nil
}
