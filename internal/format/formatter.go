package format

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dyike/patvec/pkg/patvec"
	"github.com/dyike/patvec/pkg/registry"
)

// Format 输出格式类型
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatMD   Format = "md"
	FormatXML  Format = "xml"
)

// OutputSearchResults 输出相似度搜索结果
func OutputSearchResults(results []patvec.SearchResult, format Format) error {
	switch format {
	case FormatJSON:
		return outputJSON(results)
	case FormatCSV:
		return outputSearchCSV(results)
	case FormatMD:
		return outputSearchMarkdown(results)
	case FormatXML:
		return outputXML(results)
	default:
		return outputSearchText(results)
	}
}

// OutputKeywordResults 输出关键词搜索结果
func OutputKeywordResults(results []patvec.KeywordResult, format Format) error {
	switch format {
	case FormatJSON:
		return outputJSON(results)
	case FormatCSV:
		return outputKeywordCSV(results)
	case FormatMD:
		return outputKeywordMarkdown(results)
	case FormatXML:
		return outputXML(results)
	default:
		return outputKeywordText(results)
	}
}

// OutputPatentList 输出专利列表
func OutputPatentList(patents []patvec.Patent, format Format) error {
	switch format {
	case FormatJSON:
		return outputJSON(patents)
	case FormatCSV:
		return outputPatentListCSV(patents)
	case FormatMD:
		return outputPatentListMarkdown(patents)
	case FormatXML:
		return outputXML(patents)
	default:
		return outputPatentListText(patents)
	}
}

// OutputPatentDetail 输出专利详情
func OutputPatentDetail(p *patvec.Patent, format Format, full bool) error {
	switch format {
	case FormatJSON:
		return outputJSON(p)
	case FormatMD:
		return outputPatentDetailMarkdown(p, full)
	case FormatXML:
		return outputXML(p)
	default:
		return outputPatentDetailText(p, full)
	}
}

// OutputJobs 输出嵌入任务列表
func OutputJobs(jobs []patvec.Job, format Format) error {
	switch format {
	case FormatJSON:
		return outputJSON(jobs)
	case FormatCSV:
		return outputJobsCSV(jobs)
	case FormatMD:
		return outputJobsMarkdown(jobs)
	case FormatXML:
		return outputXML(jobs)
	default:
		return outputJobsText(jobs)
	}
}

// OutputRegistryResults 输出登记处检索结果
func OutputRegistryResults(results []registry.SearchResult, format Format) error {
	switch format {
	case FormatJSON:
		return outputJSON(results)
	case FormatCSV:
		return outputRegistryCSV(results)
	case FormatXML:
		return outputXML(results)
	default:
		return outputRegistryText(results)
	}
}

// OutputStatus 输出状态信息
func OutputStatus(status patvec.Status, format Format) error {
	switch format {
	case FormatJSON:
		return outputJSON(status)
	case FormatMD:
		return outputStatusMarkdown(status)
	case FormatXML:
		return outputXML(status)
	default:
		return outputStatusText(status)
	}
}

// --- JSON 输出 ---
func outputJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// --- XML 输出 ---
func outputXML(v interface{}) error {
	encoder := xml.NewEncoder(os.Stdout)
	encoder.Indent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

// --- 相似度搜索结果输出 ---

func outputSearchText(results []patvec.SearchResult) error {
	for _, r := range results {
		number := r.PatentNumber
		if number == "" {
			number = r.PatentID
		}
		fmt.Printf("[%d] Score: %.4f | %s\n", r.Rank, r.Score, number)
		fmt.Printf("    Title: %s\n", r.Title)
		fmt.Println()
	}
	return nil
}

func outputSearchCSV(results []patvec.SearchResult) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	w.Write([]string{"Rank", "Score", "PatentNumber", "PatentID", "Title"})
	for _, r := range results {
		w.Write([]string{
			strconv.Itoa(r.Rank),
			fmt.Sprintf("%.4f", r.Score),
			r.PatentNumber,
			r.PatentID,
			r.Title,
		})
	}
	return nil
}

func outputSearchMarkdown(results []patvec.SearchResult) error {
	fmt.Println("| Rank | Score | Patent | Title |")
	fmt.Println("|------|-------|--------|-------|")
	for _, r := range results {
		number := r.PatentNumber
		if number == "" {
			number = r.PatentID
		}
		fmt.Printf("| %d | %.4f | %s | %s |\n", r.Rank, r.Score, number, r.Title)
	}
	return nil
}

// --- 关键词搜索结果输出 ---

func outputKeywordText(results []patvec.KeywordResult) error {
	for i, r := range results {
		number := r.PatentNumber
		if number == "" {
			number = r.PatentID
		}
		fmt.Printf("[%d] Score: %.4f | %s\n", i+1, r.Score, number)
		fmt.Printf("    Title: %s\n", r.Title)
		if r.Snippet != "" {
			fmt.Printf("    Snippet: %s\n", r.Snippet)
		}
		fmt.Println()
	}
	return nil
}

func outputKeywordCSV(results []patvec.KeywordResult) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	w.Write([]string{"Score", "PatentNumber", "PatentID", "Title", "Snippet"})
	for _, r := range results {
		w.Write([]string{
			fmt.Sprintf("%.4f", r.Score),
			r.PatentNumber,
			r.PatentID,
			r.Title,
			r.Snippet,
		})
	}
	return nil
}

func outputKeywordMarkdown(results []patvec.KeywordResult) error {
	fmt.Println("| Score | Patent | Title |")
	fmt.Println("|-------|--------|-------|")
	for _, r := range results {
		number := r.PatentNumber
		if number == "" {
			number = r.PatentID
		}
		fmt.Printf("| %.4f | %s | %s |\n", r.Score, number, r.Title)
	}
	return nil
}

// --- 专利列表输出 ---

func outputPatentListText(patents []patvec.Patent) error {
	for _, p := range patents {
		number := p.PatentNumber
		if number == "" {
			number = "-"
		}
		fmt.Printf("%s %s\n", p.ID, number)
		fmt.Printf("  Title: %s\n", p.Title)
		fmt.Printf("  Updated: %s\n", p.UpdatedAt.Format(time.RFC3339))
		fmt.Println()
	}
	return nil
}

func outputPatentListCSV(patents []patvec.Patent) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	w.Write([]string{"ID", "PatentNumber", "Title", "FilingDate", "Updated"})
	for _, p := range patents {
		filingDate := ""
		if p.FilingDate != nil {
			filingDate = p.FilingDate.Format("2006-01-02")
		}
		w.Write([]string{
			p.ID,
			p.PatentNumber,
			p.Title,
			filingDate,
			p.UpdatedAt.Format(time.RFC3339),
		})
	}
	return nil
}

func outputPatentListMarkdown(patents []patvec.Patent) error {
	fmt.Println("| ID | Patent | Title | Updated |")
	fmt.Println("|----|--------|-------|---------|")
	for _, p := range patents {
		fmt.Printf("| %s | %s | %s | %s |\n",
			p.ID, p.PatentNumber, p.Title, p.UpdatedAt.Format("2006-01-02"))
	}
	return nil
}

// --- 专利详情输出 ---

func outputPatentDetailText(p *patvec.Patent, full bool) error {
	fmt.Printf("ID: %s\n", p.ID)
	if p.PatentNumber != "" {
		fmt.Printf("Number: %s\n", p.PatentNumber)
	}
	fmt.Printf("Title: %s\n", p.Title)
	if p.FilingDate != nil {
		fmt.Printf("Filed: %s\n", p.FilingDate.Format("2006-01-02"))
	}
	fmt.Printf("Updated: %s\n", p.UpdatedAt.Format(time.RFC3339))
	fmt.Println()

	if p.Abstract != "" {
		fmt.Println(p.Abstract)
		fmt.Println()
	}

	content := p.Content
	if !full && len(content) > 500 {
		content = content[:500] + "\n..."
	}
	fmt.Println(content)
	return nil
}

func outputPatentDetailMarkdown(p *patvec.Patent, full bool) error {
	fmt.Printf("# %s\n\n", p.Title)
	if p.PatentNumber != "" {
		fmt.Printf("**Number:** %s  \n", p.PatentNumber)
	}
	if p.FilingDate != nil {
		fmt.Printf("**Filed:** %s  \n", p.FilingDate.Format("2006-01-02"))
	}
	fmt.Printf("**Updated:** %s\n\n", p.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("---\n")

	if p.Abstract != "" {
		fmt.Printf("%s\n\n", p.Abstract)
	}

	content := p.Content
	if !full && len(content) > 500 {
		content = content[:500] + "\n..."
	}
	fmt.Println(content)
	return nil
}

// --- 任务输出 ---

func outputJobsText(jobs []patvec.Job) error {
	for _, j := range jobs {
		fmt.Printf("%s [%s] patent=%s attempts=%d\n", j.ID, j.State, j.PatentID, j.Attempts)
		if j.LastError != "" {
			fmt.Printf("  Error: %s\n", j.LastError)
		}
		fmt.Printf("  Enqueued: %s\n", j.EnqueuedAt.Format(time.RFC3339))
		fmt.Println()
	}
	return nil
}

func outputJobsCSV(jobs []patvec.Job) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	w.Write([]string{"ID", "PatentID", "State", "Attempts", "LastError", "Enqueued"})
	for _, j := range jobs {
		w.Write([]string{
			j.ID,
			j.PatentID,
			string(j.State),
			strconv.Itoa(j.Attempts),
			j.LastError,
			j.EnqueuedAt.Format(time.RFC3339),
		})
	}
	return nil
}

func outputJobsMarkdown(jobs []patvec.Job) error {
	fmt.Println("| ID | State | Patent | Attempts | Error |")
	fmt.Println("|----|-------|--------|----------|-------|")
	for _, j := range jobs {
		fmt.Printf("| %s | %s | %s | %d | %s |\n",
			j.ID, j.State, j.PatentID, j.Attempts, j.LastError)
	}
	return nil
}

// --- 登记处检索结果输出 ---

func outputRegistryText(results []registry.SearchResult) error {
	for i, r := range results {
		fmt.Printf("[%d] Score: %.2f | %s\n", i+1, r.Score, r.PatentNumber)
		fmt.Printf("    Title: %s\n", r.Title)
		if r.Abstract != "" {
			fmt.Printf("    Abstract: %s\n", r.Abstract)
		}
		fmt.Println()
	}
	return nil
}

func outputRegistryCSV(results []registry.SearchResult) error {
	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	w.Write([]string{"PatentNumber", "Title", "Score"})
	for _, r := range results {
		w.Write([]string{r.PatentNumber, r.Title, fmt.Sprintf("%.2f", r.Score)})
	}
	return nil
}

// --- 状态输出 ---

func outputStatusText(status patvec.Status) error {
	fmt.Printf("Database: %s\n", status.DBPath)
	fmt.Printf("Model: %s (%d dims)\n", status.Model, status.VectorDim)
	fmt.Printf("Provider: %s\n", status.Provider)
	fmt.Println()
	fmt.Printf("Patents:         %d\n", status.TotalPatents)
	fmt.Printf("Embedded:        %d\n", status.EmbeddedCount)
	fmt.Printf("Needs embedding: %d\n", status.NeedsEmbedding)
	fmt.Printf("Pending jobs:    %d\n", status.PendingJobs)
	fmt.Printf("Failed jobs:     %d\n", status.FailedJobs)
	fmt.Printf("Cache entries:   %d\n", status.CacheEntries)
	return nil
}

func outputStatusMarkdown(status patvec.Status) error {
	fmt.Println("# Index Status")
	fmt.Println()
	fmt.Printf("- **Database:** %s\n", status.DBPath)
	fmt.Printf("- **Model:** %s (%d dims)\n", status.Model, status.VectorDim)
	fmt.Printf("- **Provider:** %s\n", status.Provider)
	fmt.Printf("- **Patents:** %d (%d embedded, %d pending)\n",
		status.TotalPatents, status.EmbeddedCount, status.NeedsEmbedding)
	fmt.Printf("- **Jobs:** %d pending, %d failed\n", status.PendingJobs, status.FailedJobs)
	fmt.Printf("- **Cache entries:** %d\n", status.CacheEntries)
	return nil
}
