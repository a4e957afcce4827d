package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateJob 创建一个待处理的嵌入任务
func (s *Store) CreateJob(patentID string) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.Exec(`
		INSERT INTO embed_jobs (id, patent_id, state, attempts, last_error, enqueued_at, updated_at)
		VALUES (?, ?, ?, 0, '', ?, ?)
	`, id, patentID, JobPending, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to create job: %w", err)
	}

	return id, nil
}

// GetJob 获取任务记录
func (s *Store) GetJob(id string) (*Job, error) {
	row := s.db.QueryRow(`
		SELECT id, patent_id, state, attempts, last_error, enqueued_at, updated_at
		FROM embed_jobs WHERE id = ?
	`, id)
	return scanJob(row)
}

// GetLatestJobForPatent 获取某专利最新的任务
func (s *Store) GetLatestJobForPatent(patentID string) (*Job, error) {
	row := s.db.QueryRow(`
		SELECT id, patent_id, state, attempts, last_error, enqueued_at, updated_at
		FROM embed_jobs WHERE patent_id = ?
		ORDER BY enqueued_at DESC LIMIT 1
	`, patentID)
	return scanJob(row)
}

func scanJob(row *sql.Row) (*Job, error) {
	var j Job
	var enqueuedAt, updatedAt string

	err := row.Scan(&j.ID, &j.PatentID, &j.State, &j.Attempts, &j.LastError, &enqueuedAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	j.EnqueuedAt, _ = time.Parse(time.RFC3339Nano, enqueuedAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &j, nil
}

// ClaimJob 将 pending 任务置为 running
// 以状态条件做乐观锁：任务已被取消或已在运行时返回 false
func (s *Store) ClaimJob(id string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.Exec(`
		UPDATE embed_jobs SET state = ?, updated_at = ?
		WHERE id = ? AND state = ?
	`, JobRunning, now, id, JobPending)
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to claim job: %w", err)
	}
	return n > 0, nil
}

// MarkJobSucceeded 标记任务成功
func (s *Store) MarkJobSucceeded(id string) error {
	return s.setJobState(id, JobSucceeded, "")
}

// MarkJobFailed 标记任务最终失败，记录最后一次错误
func (s *Store) MarkJobFailed(id string, lastError string) error {
	return s.setJobState(id, JobFailed, lastError)
}

func (s *Store) setJobState(id string, state JobState, lastError string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.Exec(`
		UPDATE embed_jobs SET state = ?, last_error = ?, updated_at = ?
		WHERE id = ?
	`, state, lastError, now, id)
	if err != nil {
		return fmt.Errorf("failed to update job state: %w", err)
	}
	return nil
}

// IncrementJobAttempt 记录一次重试
func (s *Store) IncrementJobAttempt(id string, lastError string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.db.Exec(`
		UPDATE embed_jobs SET attempts = attempts + 1, last_error = ?, updated_at = ?
		WHERE id = ?
	`, lastError, now, id)
	if err != nil {
		return fmt.Errorf("failed to increment job attempt: %w", err)
	}
	return nil
}

// CancelJob 取消任务，仅对 pending 状态生效
// 已在运行或已结束的任务不受影响，返回 false
func (s *Store) CancelJob(id string) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	res, err := s.db.Exec(`
		UPDATE embed_jobs SET state = ?, updated_at = ?
		WHERE id = ? AND state = ?
	`, JobCancelled, now, id, JobPending)
	if err != nil {
		return false, fmt.Errorf("failed to cancel job: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to cancel job: %w", err)
	}
	return n > 0, nil
}

// ListJobs 按入队时间倒序列出任务，state为空时列出全部
func (s *Store) ListJobs(state JobState, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows *sql.Rows
	var err error
	if state == "" {
		rows, err = s.db.Query(`
			SELECT id, patent_id, state, attempts, last_error, enqueued_at, updated_at
			FROM embed_jobs ORDER BY enqueued_at DESC LIMIT ?
		`, limit)
	} else {
		rows, err = s.db.Query(`
			SELECT id, patent_id, state, attempts, last_error, enqueued_at, updated_at
			FROM embed_jobs WHERE state = ? ORDER BY enqueued_at DESC LIMIT ?
		`, state, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var enqueuedAt, updatedAt string

		if err := rows.Scan(&j.ID, &j.PatentID, &j.State, &j.Attempts, &j.LastError, &enqueuedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}

		j.EnqueuedAt, _ = time.Parse(time.RFC3339Nano, enqueuedAt)
		j.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		jobs = append(jobs, j)
	}

	return jobs, nil
}

// CountJobs 统计某状态的任务数
func (s *Store) CountJobs(state JobState) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM embed_jobs WHERE state = ?`, state).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}
