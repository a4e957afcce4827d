package store

import (
	"fmt"
	"strings"
	"unicode"
)

// SearchKeyword 使用BM25全文搜索专利
// 标题权重高于正文，专利号精确可查
func (s *Store) SearchKeyword(query string, limit int) ([]KeywordResult, error) {
	ftsQuery := buildFTS5Query(query)
	if ftsQuery == "" {
		return nil, nil
	}

	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(`
		SELECT
			p.id,
			COALESCE(p.patent_number, ''),
			p.title,
			p.content,
			bm25(patents_fts, 5.0, 10.0, 1.0) as bm25_score
		FROM patents_fts f
		JOIN patents p ON p.rowid = f.rowid
		WHERE patents_fts MATCH ?
		ORDER BY bm25_score ASC
		LIMIT ?
	`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("FTS query failed: %w", err)
	}
	defer rows.Close()

	var results []KeywordResult
	for rows.Next() {
		var r KeywordResult
		var content string
		var bm25Score float64

		if err := rows.Scan(&r.PatentID, &r.PatentNumber, &r.Title, &content, &bm25Score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}

		// 转换BM25分数为[0,1]范围
		// BM25分数是负数，绝对值越大表示越相关
		r.Score = normalizeBM25Score(bm25Score)
		r.Snippet = extractSnippet(content, query, 300)

		results = append(results, r)
	}

	return results, nil
}

// buildFTS5Query 构建FTS5查询字符串
func buildFTS5Query(query string) string {
	// 分词并清理
	words := strings.Fields(query)
	var terms []string

	for _, word := range words {
		// 移除非字母数字字符
		cleaned := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})

		if len(cleaned) > 0 {
			// 添加前缀匹配
			terms = append(terms, fmt.Sprintf(`"%s"*`, cleaned))
		}
	}

	if len(terms) == 0 {
		return ""
	}

	// 使用AND连接所有词
	return strings.Join(terms, " AND ")
}

// normalizeBM25Score 将BM25分数转换为[0,1]范围
func normalizeBM25Score(bm25 float64) float64 {
	// BM25分数是负数，绝对值越大越相关
	// 使用 1 / (1 + |score|) 归一化
	absScore := -bm25
	if absScore < 0 {
		absScore = 0
	}
	return 1.0 / (1.0 + absScore)
}

// extractSnippet 提取包含查询词的片段
func extractSnippet(content, query string, maxLen int) string {
	if len(content) <= maxLen {
		return content
	}

	lowerContent := strings.ToLower(content)
	lowerQuery := strings.ToLower(query)

	idx := strings.Index(lowerContent, lowerQuery)
	if idx == -1 {
		// 未找到，返回开头
		return content[:maxLen] + "..."
	}

	// 在查询词周围提取上下文
	start := idx - maxLen/3
	if start < 0 {
		start = 0
	}

	end := idx + maxLen*2/3
	if end > len(content) {
		end = len(content)
	}

	snippet := content[start:end]
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(content) {
		snippet = snippet + "..."
	}

	return snippet
}
