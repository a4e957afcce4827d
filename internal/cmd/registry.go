package cmd

import (
	"context"
	"fmt"

	"github.com/dyike/patvec/internal/format"
	"github.com/spf13/cobra"
)

// import 命令 - 从登记处导入专利
var importCmd = &cobra.Command{
	Use:   "import <patent-number>...",
	Short: "Import patents from the external registry",
	Long:  "Fetch bibliographic data from Espacenet (TTL-cached) and queue embeddings",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

// registry 命令 - 检索外部登记处
var registryCmd = &cobra.Command{
	Use:   "registry <query>",
	Short: "Search the external patent registry",
	Args:  cobra.ExactArgs(1),
	RunE:  runRegistry,
}

var registryLimit int

func init() {
	registryCmd.Flags().IntVarP(&registryLimit, "num", "n", 10, "Number of results")
}

func runImport(cmd *cobra.Command, args []string) error {
	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	ctx := context.Background()
	var failed int

	for _, number := range args {
		result, err := p.ImportPatent(ctx, number)
		if err != nil {
			fmt.Printf("Failed to import %s: %v\n", number, err)
			failed++
			continue
		}

		action := "Updated"
		if result.Created {
			action = "Imported"
		}
		fmt.Printf("%s %s: %s (job %s)\n", action, result.PatentNumber, result.Title, result.JobID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(args))
	}
	return nil
}

func runRegistry(cmd *cobra.Command, args []string) error {
	p, err := getPatVec()
	if err != nil {
		return err
	}
	defer p.Close()

	results, err := p.SearchRegistry(context.Background(), args[0], registryLimit)
	if err != nil {
		return fmt.Errorf("registry search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results found")
		return nil
	}

	return format.OutputRegistryResults(results, format.Format(outputFormat))
}
