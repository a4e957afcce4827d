package cmd

import (
	"context"
	"fmt"

	"github.com/dyike/patvec/internal/format"
	"github.com/spf13/cobra"
)

// search 命令 - 向量语义搜索
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Semantic similarity search",
	Long:  "Search patents by semantic similarity (requires embeddings)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

// ksearch 命令 - BM25 关键词搜索
var ksearchCmd = &cobra.Command{
	Use:   "ksearch <query>",
	Short: "BM25 keyword search",
	Long:  "Search patents using BM25 full-text search (no embeddings needed)",
	Args:  cobra.ExactArgs(1),
	RunE:  runKSearch,
}

var (
	numResults int
	minScore   float64
)

func init() {
	// search 标志
	searchCmd.Flags().IntVarP(&numResults, "num", "n", 5, "Number of results")
	searchCmd.Flags().Float64Var(&minScore, "min-score", 0.5, "Minimum similarity threshold")

	// ksearch 标志
	ksearchCmd.Flags().IntVarP(&numResults, "num", "n", 10, "Number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	results, err := p.Search(context.Background(), query, numResults, minScore)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found")
		fmt.Println("Make sure patents have embeddings (check 'patvec status')")
		return nil
	}

	fmt.Printf("Found %d result(s)\n\n", len(results))
	return format.OutputSearchResults(results, format.Format(outputFormat))
}

func runKSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	results, err := p.SearchKeyword(query, numResults)
	if err != nil {
		return fmt.Errorf("keyword search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found")
		return nil
	}

	fmt.Printf("Found %d result(s)\n\n", len(results))
	return format.OutputKeywordResults(results, format.Format(outputFormat))
}
