package store

import (
	"fmt"
	"sort"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"

	"github.com/dyike/patvec/pkg/vectordb"
)

// UpsertVector 存储专利的嵌入向量
// 幂等：对同一patent_id重复写入相同向量，索引状态不变
// 维度与索引不一致时报错，且不改动该专利已有的向量
func (s *Store) UpsertVector(patentID string, embedding []float32, model string) error {
	if dim, err := s.VectorDim(); err != nil {
		return err
	} else if dim != 0 && dim != len(embedding) {
		return fmt.Errorf("%w: index has %d, vector has %d",
			vectordb.ErrDimensionMismatch, dim, len(embedding))
	}

	// 确保 vectors_vec 虚拟表存在（第一条向量固定索引维度）
	if err := s.ensureVectorTable(len(embedding)); err != nil {
		return fmt.Errorf("failed to ensure vector table: %w", err)
	}

	// 序列化向量（patent_vectors 和 vectors_vec 共用）
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("failed to serialize vector: %w", err)
	}

	// 纳秒精度时间戳，topK按时间决胜时需要足够的分辨率
	now := time.Now().UTC().Format(time.RFC3339Nano)

	// 开启事务，同时写入两个表
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO patent_vectors (patent_id, model, dim, embedding, embedded_at)
		VALUES (?, ?, ?, ?, ?)
	`, patentID, model, len(embedding), blob, now)
	if err != nil {
		return fmt.Errorf("failed to store embedding metadata: %w", err)
	}

	// vec0虚拟表不支持 OR REPLACE，重写前先删除旧行
	if _, err := tx.Exec(`DELETE FROM vectors_vec WHERE patent_id = ?`, patentID); err != nil {
		return fmt.Errorf("failed to clear old vector: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO vectors_vec (patent_id, embedding)
		VALUES (?, ?)
	`, patentID, blob)
	if err != nil {
		return fmt.Errorf("failed to store vector in vec table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetVector 获取专利的嵌入向量
func (s *Store) GetVector(patentID string) ([]float32, error) {
	var blob []byte

	err := s.db.QueryRow(`
		SELECT embedding FROM patent_vectors WHERE patent_id = ?
	`, patentID).Scan(&blob)

	if err != nil {
		return nil, fmt.Errorf("failed to get vector: %w", err)
	}

	return blobToFloat32(blob), nil
}

// HasVector 检查专利是否已有向量
func (s *Store) HasVector(patentID string) (bool, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM patent_vectors WHERE patent_id = ?
	`, patentID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check vector: %w", err)
	}
	return count > 0, nil
}

// candidate topK排序中间结果
type candidate struct {
	patentID   string
	similarity float64
	embeddedAt time.Time
}

// TopK 返回与查询向量最相似的至多k个专利
// 相似度 = 1 - 余弦距离，只保留 >= threshold 的结果，按相似度降序，
// 相同分数时较新的嵌入排前。候选不足k个时返回更少的结果，不做低置信度填充。
//
// 有 vectors_vec 虚拟表时先用 MATCH 取 k*3 个近邻再精确重排，
// 没有虚拟表时全表暴力扫描。两条路径的排序结果一致。
func (s *Store) TopK(query []float32, k int, threshold float64) ([]SimilarityResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be >= 1, got %d", k)
	}

	if dim, err := s.VectorDim(); err != nil {
		return nil, err
	} else if dim != 0 && dim != len(query) {
		return nil, fmt.Errorf("%w: index has %d, query has %d",
			vectordb.ErrDimensionMismatch, dim, len(query))
	}

	exists, err := s.hasVecTable()
	if err != nil {
		return nil, err
	}

	var candidates []candidate
	if exists {
		candidates, err = s.vecCandidates(query, k)
	} else {
		candidates, err = s.scanCandidates(query)
	}
	if err != nil {
		return nil, err
	}

	return s.rank(candidates, k, threshold)
}

// vecCandidates 使用 sqlite-vec MATCH 获取近邻候选并精确重排
// 取 k*3 个候选：MATCH 返回的就是余弦距离最近的候选，超额获取
// 只是为了让阈值过滤后仍有足够结果
func (s *Store) vecCandidates(query []float32, k int) ([]candidate, error) {
	vecBlob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize query vector: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT patent_id FROM vectors_vec
		WHERE embedding MATCH ? AND k = ?
	`, vecBlob, k*3)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	// 从元数据表读回向量做精确重打分，保证与暴力扫描排序一致
	var candidates []candidate
	for _, id := range ids {
		c, err := s.loadCandidate(id, query)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// scanCandidates 暴力扫描所有向量（参考语义，小规模数据集的兜底路径）
func (s *Store) scanCandidates(query []float32) ([]candidate, error) {
	rows, err := s.db.Query(`
		SELECT patent_id, embedding, embedded_at FROM patent_vectors
	`)
	if err != nil {
		return nil, fmt.Errorf("vector scan failed: %w", err)
	}
	defer rows.Close()

	var candidates []candidate
	for rows.Next() {
		var id string
		var blob []byte
		var embeddedAt string

		if err := rows.Scan(&id, &blob, &embeddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vector: %w", err)
		}

		dist, err := vectordb.CosineDist(query, blobToFloat32(blob))
		if err != nil {
			return nil, err
		}

		c := candidate{patentID: id, similarity: 1.0 - dist}
		c.embeddedAt, _ = time.Parse(time.RFC3339Nano, embeddedAt)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate vectors: %w", err)
	}

	return candidates, nil
}

// loadCandidate 读取单个向量并计算精确相似度
func (s *Store) loadCandidate(patentID string, query []float32) (candidate, error) {
	var blob []byte
	var embeddedAt string

	err := s.db.QueryRow(`
		SELECT embedding, embedded_at FROM patent_vectors WHERE patent_id = ?
	`, patentID).Scan(&blob, &embeddedAt)
	if err != nil {
		return candidate{}, fmt.Errorf("failed to load vector %s: %w", patentID, err)
	}

	dist, err := vectordb.CosineDist(query, blobToFloat32(blob))
	if err != nil {
		return candidate{}, err
	}

	c := candidate{patentID: patentID, similarity: 1.0 - dist}
	c.embeddedAt, _ = time.Parse(time.RFC3339Nano, embeddedAt)
	return c, nil
}

// rank 阈值过滤、排序、截断并补齐专利信息
func (s *Store) rank(candidates []candidate, k int, threshold float64) ([]SimilarityResult, error) {
	filtered := candidates[:0]
	for _, c := range candidates {
		if c.similarity >= threshold {
			filtered = append(filtered, c)
		}
	}

	// 相似度降序；分数相同时较新的嵌入优先
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].similarity != filtered[j].similarity {
			return filtered[i].similarity > filtered[j].similarity
		}
		return filtered[i].embeddedAt.After(filtered[j].embeddedAt)
	})

	if len(filtered) > k {
		filtered = filtered[:k]
	}

	results := make([]SimilarityResult, 0, len(filtered))
	for i, c := range filtered {
		result := SimilarityResult{
			PatentID:   c.patentID,
			Score:      c.similarity,
			Rank:       i + 1,
			EmbeddedAt: c.embeddedAt,
		}

		// 补齐展示字段；专利可能在查询间隙被删除，跳过即可
		if p, err := s.GetPatent(c.patentID); err == nil {
			result.PatentNumber = p.PatentNumber
			result.Title = p.Title
		}

		results = append(results, result)
	}

	return results, nil
}
