package embed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/dyike/patvec/pkg/vectordb"
)

func TestEmbedDimension(t *testing.T) {
	svc, err := NewService("mock-model", 384, NewMockProvider(384))
	if err != nil {
		t.Fatal(err)
	}

	embedding, err := svc.Embed(context.Background(), "battery technology innovation")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(embedding) != 384 {
		t.Errorf("Expected embedding dimension 384, got %d", len(embedding))
	}

	// 验证嵌入已归一化
	var sumSquares float64
	for _, v := range embedding {
		sumSquares += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(sumSquares)-1.0) > 1e-4 {
		t.Errorf("Embedding not normalized: norm = %f", math.Sqrt(sumSquares))
	}
}

func TestEmbedDeterministic(t *testing.T) {
	svc, err := NewService("mock-model", 384, NewMockProvider(384))
	if err != nil {
		t.Fatal(err)
	}

	a, err := svc.Embed(context.Background(), "lithium battery")
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.Embed(context.Background(), "lithium battery")
	if err != nil {
		t.Fatal(err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Same text produced different vectors at %d", i)
		}
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	mock := NewMockProvider(384)
	svc, err := NewService("mock-model", 384, mock)
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Embed(context.Background(), "   \n\t  ")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}

	// 空输入不应该触发provider调用
	if mock.Calls != 0 {
		t.Errorf("Provider called %d times for empty input", mock.Calls)
	}
}

func TestEmbedFallback(t *testing.T) {
	primary := NewMockProvider(384)
	primary.FailErr = fmt.Errorf("connection refused")
	secondary := NewMockProvider(384)

	svc, err := NewService("mock-model", 384, primary, secondary)
	if err != nil {
		t.Fatal(err)
	}

	embedding, err := svc.Embed(context.Background(), "wireless charging system")
	if err != nil {
		t.Fatalf("Expected fallback to succeed, got %v", err)
	}

	if len(embedding) != 384 {
		t.Errorf("Expected dimension 384, got %d", len(embedding))
	}
}

func TestEmbedFallbackNotSticky(t *testing.T) {
	primary := NewMockProvider(384)
	primary.FailErr = fmt.Errorf("timeout")
	secondary := NewMockProvider(384)

	svc, err := NewService("mock-model", 384, primary, secondary)
	if err != nil {
		t.Fatal(err)
	}

	// 连续两次调用，primary每次都应该被重新尝试
	for i := 0; i < 2; i++ {
		if _, err := svc.Embed(context.Background(), "solar panel"); err != nil {
			t.Fatal(err)
		}
	}

	if primary.Calls != 2 {
		t.Errorf("Primary should be attempted fresh per call, got %d calls", primary.Calls)
	}
}

func TestEmbedAllProvidersFail(t *testing.T) {
	primary := NewMockProvider(384)
	primary.FailErr = fmt.Errorf("auth failed")
	secondary := NewMockProvider(384)
	secondary.FailErr = fmt.Errorf("network down")

	svc, err := NewService("mock-model", 384, primary, secondary)
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.Embed(context.Background(), "quantum computing")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

func TestNewServiceDimensionMismatch(t *testing.T) {
	// provider声明768维但配置384维，启动即失败
	_, err := NewService("mock-model", 384, NewMockProvider(768))
	if !errors.Is(err, vectordb.ErrDimensionMismatch) {
		t.Errorf("Expected ErrDimensionMismatch at startup, got %v", err)
	}
}

func TestNewServiceInvalidDimension(t *testing.T) {
	_, err := NewService("mock-model", 512, NewMockProvider(512))
	if err == nil {
		t.Error("Expected error for unsupported dimension 512")
	}
}

func TestEmbedBatch(t *testing.T) {
	svc, err := NewService("mock-model", 768, NewMockProvider(768))
	if err != nil {
		t.Fatal(err)
	}

	texts := []string{"first patent", "second patent", "third patent"}
	embeddings, err := svc.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}

	if len(embeddings) != 3 {
		t.Fatalf("Expected 3 embeddings, got %d", len(embeddings))
	}

	for i, emb := range embeddings {
		if len(emb) != 768 {
			t.Errorf("Embedding %d has dimension %d, expected 768", i, len(emb))
		}
	}
}
