package store

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/dyike/patvec/pkg/vectordb"
)

// unitVec 构造一个在axis方向上的单位向量
func unitVec(dim, axis int) []float32 {
	v := make([]float32, dim)
	v[axis] = 1.0
	return v
}

func addPatentWithVector(t *testing.T, s *Store, number string, vec []float32) string {
	t.Helper()
	id, err := s.CreatePatent(Patent{PatentNumber: number, Title: "patent " + number, Content: "body"})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertVector(id, vec, "mock"); err != nil {
		t.Fatalf("Failed to upsert vector: %v", err)
	}
	return id
}

func TestUpsertAndTopK(t *testing.T) {
	s := newTestStore(t)

	idA := addPatentWithVector(t, s, "A", unitVec(4, 0))
	addPatentWithVector(t, s, "B", unitVec(4, 1))

	// 与A完全同向，自身相似度应为1.0且排第一
	results, err := s.TopK(unitVec(4, 0), 5, 0.0)
	if err != nil {
		t.Fatalf("TopK failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].PatentID != idA {
		t.Errorf("Expected %s first, got %s", idA, results[0].PatentID)
	}
	if math.Abs(results[0].Score-1.0) > 1e-6 {
		t.Errorf("Expected self-similarity 1.0, got %f", results[0].Score)
	}
	if results[0].Rank != 1 || results[1].Rank != 2 {
		t.Errorf("Ranks should be 1,2; got %d,%d", results[0].Rank, results[1].Rank)
	}
	if results[0].PatentNumber != "A" {
		t.Errorf("Expected patent number A, got %s", results[0].PatentNumber)
	}
}

func TestTopKThresholdAndLimit(t *testing.T) {
	s := newTestStore(t)

	addPatentWithVector(t, s, "A", unitVec(4, 0))
	addPatentWithVector(t, s, "B", unitVec(4, 1)) // 正交，相似度0

	// 阈值过滤：正交向量(相似度0)应被0.9的阈值排除
	results, err := s.TopK(unitVec(4, 0), 5, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result above threshold, got %d", len(results))
	}

	// k截断：k=1时即使两条都过阈值也只返回1条
	results, err = s.TopK(unitVec(4, 0), 1, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected exactly 1 result with k=1, got %d", len(results))
	}

	// 候选不足k时返回实际数量，不填充
	results, err = s.TopK(unitVec(4, 0), 10, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results with k=10, got %d", len(results))
	}
}

func TestUpsertIdempotent(t *testing.T) {
	s := newTestStore(t)

	id := addPatentWithVector(t, s, "A", unitVec(4, 0))

	// 重复写入同一向量，索引状态不变
	if err := s.UpsertVector(id, unitVec(4, 0), "mock"); err != nil {
		t.Fatalf("Repeat upsert failed: %v", err)
	}

	results, err := s.TopK(unitVec(4, 0), 5, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result after repeat upsert, got %d", len(results))
	}
}

func TestUpsertReplacesVector(t *testing.T) {
	s := newTestStore(t)

	id := addPatentWithVector(t, s, "A", unitVec(4, 0))

	// 覆盖为新向量后，旧方向的查询不再命中高分
	if err := s.UpsertVector(id, unitVec(4, 1), "mock"); err != nil {
		t.Fatal(err)
	}

	results, err := s.TopK(unitVec(4, 1), 5, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].PatentID != id {
		t.Fatalf("Expected replaced vector to match new direction, got %v", results)
	}
}

func TestDimensionMismatchLeavesVectorIntact(t *testing.T) {
	s := newTestStore(t)

	id := addPatentWithVector(t, s, "A", unitVec(4, 0))

	// 维度不符的写入必须失败且不动原向量
	err := s.UpsertVector(id, unitVec(8, 0), "mock")
	if !errors.Is(err, vectordb.ErrDimensionMismatch) {
		t.Fatalf("Expected ErrDimensionMismatch, got %v", err)
	}

	vec, err := s.GetVector(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 4 {
		t.Errorf("Prior vector should be intact, got dim %d", len(vec))
	}

	// 维度不符的查询同样报错
	if _, err := s.TopK(unitVec(8, 0), 5, 0.0); !errors.Is(err, vectordb.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch on query, got %v", err)
	}
}

func TestTopKEmptyIndex(t *testing.T) {
	s := newTestStore(t)

	results, err := s.TopK(unitVec(4, 0), 5, 0.0)
	if err != nil {
		t.Fatalf("TopK on empty index failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results on empty index, got %d", len(results))
	}
}

func TestTopKTieBreakNewerFirst(t *testing.T) {
	s := newTestStore(t)

	idOld := addPatentWithVector(t, s, "A", unitVec(4, 0))
	time.Sleep(5 * time.Millisecond)
	idNew := addPatentWithVector(t, s, "B", unitVec(4, 0))

	// 分数相同时，较新的嵌入排前
	results, err := s.TopK(unitVec(4, 0), 5, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].PatentID != idNew || results[1].PatentID != idOld {
		t.Errorf("Expected newer embedding first, got %s then %s",
			results[0].PatentID, results[1].PatentID)
	}

	// 重新嵌入旧专利后顺序反转
	time.Sleep(5 * time.Millisecond)
	if err := s.UpsertVector(idOld, unitVec(4, 0), "mock"); err != nil {
		t.Fatal(err)
	}

	results, err = s.TopK(unitVec(4, 0), 5, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].PatentID != idOld {
		t.Errorf("Expected re-embedded patent first, got %s", results[0].PatentID)
	}
}

func TestDeletePatentNoOrphanVectors(t *testing.T) {
	s := newTestStore(t)

	id := addPatentWithVector(t, s, "A", unitVec(4, 0))

	// 占住一个连接，迫使删除走连接池里的另一个连接
	conn, err := s.DB().Conn(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := s.DeletePatent(id); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := s.DB().QueryRow(
		"SELECT COUNT(*) FROM patent_vectors WHERE patent_id = ?", id,
	).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Expected no vector rows after delete, got %d", count)
	}
}

func TestDeletePatentRemovesVector(t *testing.T) {
	s := newTestStore(t)

	id := addPatentWithVector(t, s, "A", unitVec(4, 0))
	addPatentWithVector(t, s, "B", unitVec(4, 1))

	if err := s.DeletePatent(id); err != nil {
		t.Fatal(err)
	}

	results, err := s.TopK(unitVec(4, 0), 5, 0.0)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.PatentID == id {
			t.Errorf("Deleted patent %s still in index", id)
		}
	}
}
