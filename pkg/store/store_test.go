package store

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetPatent(t *testing.T) {
	s := newTestStore(t)

	filed := time.Date(2021, 3, 15, 0, 0, 0, 0, time.UTC)
	id, err := s.CreatePatent(Patent{
		PatentNumber: "EP1234567",
		Title:        "Neural network accelerator",
		Abstract:     "A hardware accelerator for neural network inference.",
		Content:      "A hardware accelerator for neural network inference with reduced power consumption.",
		FilingDate:   &filed,
	})
	if err != nil {
		t.Fatalf("Failed to create patent: %v", err)
	}
	if id == "" {
		t.Fatal("Expected generated ID, got empty string")
	}

	p, err := s.GetPatent(id)
	if err != nil {
		t.Fatalf("Failed to get patent: %v", err)
	}
	if p.PatentNumber != "EP1234567" {
		t.Errorf("Expected patent number EP1234567, got %s", p.PatentNumber)
	}
	if p.Title != "Neural network accelerator" {
		t.Errorf("Unexpected title: %s", p.Title)
	}
	if p.FilingDate == nil || !p.FilingDate.Equal(filed) {
		t.Errorf("Filing date not preserved: %v", p.FilingDate)
	}

	// 按专利号查询应返回同一条记录
	byNumber, err := s.GetPatentByNumber("EP1234567")
	if err != nil {
		t.Fatalf("Failed to get patent by number: %v", err)
	}
	if byNumber.ID != id {
		t.Errorf("Expected ID %s, got %s", id, byNumber.ID)
	}
}

func TestUpdatePatentPartial(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreatePatent(Patent{
		Title:   "Original title",
		Content: "Original content",
	})
	if err != nil {
		t.Fatal(err)
	}

	// 只更新标题，正文应保持不变
	if err := s.UpdatePatent(id, Patent{Title: "Updated title"}); err != nil {
		t.Fatalf("Failed to update patent: %v", err)
	}

	p, err := s.GetPatent(id)
	if err != nil {
		t.Fatal(err)
	}
	if p.Title != "Updated title" {
		t.Errorf("Expected updated title, got %s", p.Title)
	}
	if p.Content != "Original content" {
		t.Errorf("Content should be unchanged, got %s", p.Content)
	}
}

func TestDeletePatent(t *testing.T) {
	s := newTestStore(t)

	id, err := s.CreatePatent(Patent{Title: "To delete", Content: "body"})
	if err != nil {
		t.Fatal(err)
	}

	if err := s.DeletePatent(id); err != nil {
		t.Fatalf("Failed to delete patent: %v", err)
	}

	if _, err := s.GetPatent(id); err == nil {
		t.Error("Expected error getting deleted patent")
	}

	// 删除不存在的专利应报错
	if err := s.DeletePatent("no-such-id"); err == nil {
		t.Error("Expected error deleting missing patent")
	}
}

func TestGetStatus(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		if _, err := s.CreatePatent(Patent{Title: "p", Content: "c"}); err != nil {
			t.Fatal(err)
		}
	}

	status, err := s.GetStatus()
	if err != nil {
		t.Fatalf("Failed to get status: %v", err)
	}
	if status.TotalPatents != 3 {
		t.Errorf("Expected 3 patents, got %d", status.TotalPatents)
	}
	if status.NeedsEmbedding != 3 {
		t.Errorf("Expected 3 needing embedding, got %d", status.NeedsEmbedding)
	}
	if status.VectorDim != 0 {
		t.Errorf("Expected dim 0 before first vector, got %d", status.VectorDim)
	}
}

func TestSearchKeyword(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreatePatent(Patent{
		PatentNumber: "US111",
		Title:        "Lithium battery electrode",
		Content:      "An improved electrode material for lithium ion batteries.",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreatePatent(Patent{
		PatentNumber: "US222",
		Title:        "Wind turbine blade",
		Content:      "A composite blade design for offshore wind turbines.",
	}); err != nil {
		t.Fatal(err)
	}

	results, err := s.SearchKeyword("lithium battery", 10)
	if err != nil {
		t.Fatalf("Keyword search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].PatentNumber != "US111" {
		t.Errorf("Expected US111, got %s", results[0].PatentNumber)
	}
	if results[0].Score <= 0 || results[0].Score > 1 {
		t.Errorf("Score out of range: %f", results[0].Score)
	}

	// 空查询不报错，返回空结果
	empty, err := s.SearchKeyword("   ", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("Expected no results for empty query, got %d", len(empty))
	}
}
