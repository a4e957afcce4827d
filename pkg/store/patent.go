package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreatePatent 创建专利记录
// ID为空时自动生成uuid；返回最终ID
func (s *Store) CreatePatent(p Patent) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	var filingDate interface{}
	if p.FilingDate != nil {
		filingDate = p.FilingDate.UTC().Format(time.RFC3339)
	}

	var patentNumber interface{}
	if p.PatentNumber != "" {
		patentNumber = p.PatentNumber
	}

	_, err := s.db.Exec(`
		INSERT INTO patents (id, patent_number, title, abstract, content, filing_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, patentNumber, p.Title, p.Abstract, p.Content, filingDate,
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339))

	if err != nil {
		return "", fmt.Errorf("failed to insert patent: %w", err)
	}

	return p.ID, nil
}

// GetPatent 根据ID获取专利
func (s *Store) GetPatent(id string) (*Patent, error) {
	return s.scanPatent(s.db.QueryRow(`
		SELECT id, patent_number, title, abstract, content, filing_date, created_at, updated_at
		FROM patents WHERE id = ?
	`, id), id)
}

// GetPatentByNumber 根据专利号获取专利
func (s *Store) GetPatentByNumber(number string) (*Patent, error) {
	return s.scanPatent(s.db.QueryRow(`
		SELECT id, patent_number, title, abstract, content, filing_date, created_at, updated_at
		FROM patents WHERE patent_number = ?
	`, number), number)
}

func (s *Store) scanPatent(row *sql.Row, ref string) (*Patent, error) {
	var p Patent
	var patentNumber, filingDate sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &patentNumber, &p.Title, &p.Abstract, &p.Content,
		&filingDate, &createdAt, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("patent not found: %s", ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patent: %w", err)
	}

	p.PatentNumber = patentNumber.String
	if filingDate.Valid {
		if t, err := time.Parse(time.RFC3339, filingDate.String); err == nil {
			p.FilingDate = &t
		}
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &p, nil
}

// UpdatePatent 更新专利内容
// 只更新非零值字段，updated_at总是刷新
func (s *Store) UpdatePatent(id string, p Patent) error {
	existing, err := s.GetPatent(id)
	if err != nil {
		return err
	}

	if p.Title != "" {
		existing.Title = p.Title
	}
	if p.Abstract != "" {
		existing.Abstract = p.Abstract
	}
	if p.Content != "" {
		existing.Content = p.Content
	}
	if p.FilingDate != nil {
		existing.FilingDate = p.FilingDate
	}

	var filingDate interface{}
	if existing.FilingDate != nil {
		filingDate = existing.FilingDate.UTC().Format(time.RFC3339)
	}

	_, err = s.db.Exec(`
		UPDATE patents
		SET title = ?, abstract = ?, content = ?, filing_date = ?, updated_at = ?
		WHERE id = ?
	`, existing.Title, existing.Abstract, existing.Content, filingDate,
		time.Now().UTC().Format(time.RFC3339), id)

	if err != nil {
		return fmt.Errorf("failed to update patent: %w", err)
	}

	return nil
}

// DeletePatent 删除专利及其向量
func (s *Store) DeletePatent(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("DELETE FROM patents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete patent: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("patent not found: %s", id)
	}

	// 向量行在同一事务内显式清理，不依赖连接级外键设置
	if _, err := tx.Exec("DELETE FROM patent_vectors WHERE patent_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete patent vector: %w", err)
	}

	// vectors_vec是虚拟表，外键不会级联到它
	if exists, err := s.hasVecTable(); err == nil && exists {
		if _, err := tx.Exec("DELETE FROM vectors_vec WHERE patent_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete from vectors_vec: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListPatents 列出专利（按更新时间倒序）
func (s *Store) ListPatents(limit, offset int) ([]Patent, error) {
	rows, err := s.db.Query(`
		SELECT id, patent_number, title, abstract, content, filing_date, created_at, updated_at
		FROM patents
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list patents: %w", err)
	}
	defer rows.Close()

	var patents []Patent
	for rows.Next() {
		var p Patent
		var patentNumber, filingDate sql.NullString
		var createdAt, updatedAt string

		err := rows.Scan(&p.ID, &patentNumber, &p.Title, &p.Abstract, &p.Content,
			&filingDate, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patent: %w", err)
		}

		p.PatentNumber = patentNumber.String
		if filingDate.Valid {
			if t, err := time.Parse(time.RFC3339, filingDate.String); err == nil {
				p.FilingDate = &t
			}
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

		patents = append(patents, p)
	}

	return patents, nil
}

// GetStatus 获取索引状态
func (s *Store) GetStatus() (Status, error) {
	var status Status
	status.DBPath = s.dbPath

	err := s.db.QueryRow("SELECT COUNT(*) FROM patents").Scan(&status.TotalPatents)
	if err != nil {
		return status, fmt.Errorf("failed to count patents: %w", err)
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM patent_vectors").Scan(&status.EmbeddedCount)
	if err != nil {
		return status, fmt.Errorf("failed to count vectors: %w", err)
	}
	status.NeedsEmbedding = status.TotalPatents - status.EmbeddedCount

	err = s.db.QueryRow("SELECT COUNT(*) FROM embed_jobs WHERE state IN (?, ?)",
		string(JobPending), string(JobRunning)).Scan(&status.PendingJobs)
	if err != nil {
		return status, fmt.Errorf("failed to count pending jobs: %w", err)
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM embed_jobs WHERE state = ?",
		string(JobFailed)).Scan(&status.FailedJobs)
	if err != nil {
		return status, fmt.Errorf("failed to count failed jobs: %w", err)
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM registry_cache").Scan(&status.CacheEntries)
	if err != nil {
		return status, fmt.Errorf("failed to count cache entries: %w", err)
	}

	status.VectorDim, err = s.VectorDim()
	if err != nil {
		return status, err
	}

	return status, nil
}
