package patvec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dyike/patvec/pkg/embed"
)

func newTestEngine(t *testing.T) *PatVec {
	t.Helper()

	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")
	cfg.Providers = []string{"mock"}
	cfg.RegistryMode = "mock"

	p, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

// waitIdle 等待嵌入队列排空
func waitIdle(t *testing.T, p *PatVec) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		status, err := p.Status()
		if err != nil {
			t.Fatal(err)
		}
		if status.PendingJobs == 0 {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("Queue never drained: %d pending", status.PendingJobs)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNewFailsFastOnBadDimensions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")
	cfg.Providers = []string{"mock"}
	cfg.Dimensions = 512

	if _, err := New(cfg); err == nil {
		t.Fatal("Expected error for unsupported dimensions")
	}
}

func TestAddPatentSearchable(t *testing.T) {
	p := newTestEngine(t)

	title := "Lithium-ion battery with improved energy density"
	patentID, jobID, err := p.AddPatent(Patent{Title: title})
	if err != nil {
		t.Fatalf("AddPatent failed: %v", err)
	}
	if jobID == "" {
		t.Fatal("Expected embedding job to be enqueued")
	}

	waitIdle(t, p)

	// 嵌入完成后，用原文检索应命中且排第一，相似度≈1
	results, err := p.SearchTop5(context.Background(), title)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("Expected at least 1 result")
	}
	if results[0].PatentID != patentID {
		t.Errorf("Expected %s at rank 1, got %s", patentID, results[0].PatentID)
	}
	if results[0].Score < 0.99 {
		t.Errorf("Expected near-perfect score for exact text, got %f", results[0].Score)
	}
	if results[0].Rank != 1 {
		t.Errorf("Expected rank 1, got %d", results[0].Rank)
	}
}

func TestSearchTop5Caps(t *testing.T) {
	p := newTestEngine(t)

	query := "Wireless charging system"
	// 7条内容相同的专利都与查询完全匹配
	for i := 0; i < 7; i++ {
		if _, _, err := p.AddPatent(Patent{Title: query}); err != nil {
			t.Fatal(err)
		}
	}
	waitIdle(t, p)

	results, err := p.SearchTop5(context.Background(), query)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 5 {
		t.Errorf("Expected exactly 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Rank != i+1 {
			t.Errorf("Expected rank %d, got %d", i+1, r.Rank)
		}
	}
}

func TestSearchEmptyQueryRejected(t *testing.T) {
	p := newTestEngine(t)

	_, err := p.Search(context.Background(), "   ", 5, 0.5)
	if !errors.Is(err, embed.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdatePatentReembeds(t *testing.T) {
	p := newTestEngine(t)

	oldTitle := "Solar panel manufacturing process"
	newTitle := "Quantum computing error correction"

	patentID, _, err := p.AddPatent(Patent{Title: oldTitle})
	if err != nil {
		t.Fatal(err)
	}
	waitIdle(t, p)

	if _, err := p.UpdatePatent(patentID, Patent{Title: newTitle}); err != nil {
		t.Fatalf("UpdatePatent failed: %v", err)
	}
	waitIdle(t, p)

	// 新内容可检索
	results, err := p.SearchTop5(context.Background(), newTitle)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].PatentID != patentID {
		t.Fatalf("Expected updated patent for new title, got %v", results)
	}

	// 每个专利只保留一条向量
	status, err := p.Status()
	if err != nil {
		t.Fatal(err)
	}
	if status.EmbeddedCount != 1 {
		t.Errorf("Expected 1 vector after reembed, got %d", status.EmbeddedCount)
	}
}

func TestImportPatentUpsert(t *testing.T) {
	p := newTestEngine(t)
	ctx := context.Background()

	first, err := p.ImportPatent(ctx, "EP1234567")
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if !first.Created {
		t.Error("First import should create a record")
	}
	if first.Title == "" {
		t.Error("Imported record should carry a title")
	}

	second, err := p.ImportPatent(ctx, "EP1234567")
	if err != nil {
		t.Fatal(err)
	}
	if second.Created {
		t.Error("Second import should update, not create")
	}
	if second.PatentID != first.PatentID {
		t.Errorf("Import should be stable per patent number: %s vs %s", second.PatentID, first.PatentID)
	}

	waitIdle(t, p)

	status, err := p.Status()
	if err != nil {
		t.Fatal(err)
	}
	if status.TotalPatents != 1 {
		t.Errorf("Expected 1 patent after repeated import, got %d", status.TotalPatents)
	}

	// 导入的专利可以按号查到并参与语义搜索
	patent, err := p.GetPatentByNumber("EP1234567")
	if err != nil {
		t.Fatal(err)
	}
	results, err := p.SearchTop5(ctx, patent.Title+"\n\n"+patent.Abstract)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].PatentID != first.PatentID {
		t.Errorf("Imported patent not searchable: %v", results)
	}
}

func TestSearchRegistry(t *testing.T) {
	p := newTestEngine(t)

	results, err := p.SearchRegistry(context.Background(), "battery", 5)
	if err != nil {
		t.Fatalf("Registry search failed: %v", err)
	}
	if len(results) != 5 {
		t.Errorf("Expected 5 registry results, got %d", len(results))
	}
}

func TestIndexDirectory(t *testing.T) {
	p := newTestEngine(t)

	dir := t.TempDir()
	files := map[string]string{
		"EP1234567.txt": "Battery with improved energy density\n\nDetails follow.",
		"notes.md":      "# Wind turbine blade design\n\nComposite materials.",
		"image.bin":     "not text",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	report, err := p.IndexDirectory(dir, IndexOptions{})
	if err != nil {
		t.Fatalf("IndexDirectory failed: %v", err)
	}
	if report.Indexed != 2 {
		t.Errorf("Expected 2 indexed files, got %d", report.Indexed)
	}
	if report.Skipped != 1 {
		t.Errorf("Expected 1 skipped file, got %d", report.Skipped)
	}

	// 专利号文件名被识别
	patent, err := p.GetPatentByNumber("EP1234567")
	if err != nil {
		t.Fatalf("Numbered file should be stored under its patent number: %v", err)
	}
	if patent.Title != "Battery with improved energy density" {
		t.Errorf("Unexpected title: %s", patent.Title)
	}

	// 重复索引按号更新，不重复建档
	if _, err := p.IndexDirectory(dir, IndexOptions{}); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, p)

	if _, err := p.GetPatentByNumber("EP1234567"); err != nil {
		t.Fatal(err)
	}
}

func TestKeywordSearch(t *testing.T) {
	p := newTestEngine(t)

	if _, _, err := p.AddPatent(Patent{
		PatentNumber: "US999",
		Title:        "Water purification membrane",
		Content:      "A membrane for purifying water with enhanced filtration.",
	}); err != nil {
		t.Fatal(err)
	}

	// 关键词搜索不依赖嵌入，入库后立即可用
	results, err := p.SearchKeyword("membrane", 10)
	if err != nil {
		t.Fatalf("Keyword search failed: %v", err)
	}
	if len(results) != 1 || results[0].PatentNumber != "US999" {
		t.Fatalf("Expected US999, got %v", results)
	}
}
