package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// schema SQLite数据库schema
const schema = `
-- 专利文档
CREATE TABLE IF NOT EXISTS patents (
    id TEXT PRIMARY KEY,
    patent_number TEXT UNIQUE,
    title TEXT NOT NULL,
    abstract TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    filing_date TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_patents_number ON patents(patent_number);
CREATE INDEX IF NOT EXISTS idx_patents_updated ON patents(updated_at DESC);

-- 向量嵌入元数据
-- 每个专利最多一条向量记录，provider和维度随向量一起记录
CREATE TABLE IF NOT EXISTS patent_vectors (
    patent_id TEXT PRIMARY KEY,
    model TEXT NOT NULL,
    dim INTEGER NOT NULL,
    embedding BLOB NOT NULL,
    embedded_at TEXT NOT NULL,
    FOREIGN KEY (patent_id) REFERENCES patents(id) ON DELETE CASCADE
);

-- 嵌入任务（操作人员可见的任务历史）
CREATE TABLE IF NOT EXISTS embed_jobs (
    id TEXT PRIMARY KEY,
    patent_id TEXT NOT NULL,
    state TEXT NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    last_error TEXT NOT NULL DEFAULT '',
    enqueued_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_embed_jobs_patent ON embed_jobs(patent_id, enqueued_at);
CREATE INDEX IF NOT EXISTS idx_embed_jobs_state ON embed_jobs(state);

-- 外部登记处元数据缓存（TTL）
CREATE TABLE IF NOT EXISTS registry_cache (
    key TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    created_at TEXT NOT NULL,
    expires_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_registry_cache_expires ON registry_cache(expires_at);

-- 索引元数据（向量维度等）
CREATE TABLE IF NOT EXISTS index_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- FTS5全文搜索索引
CREATE VIRTUAL TABLE IF NOT EXISTS patents_fts USING fts5(
    patent_number, title, body,
    tokenize='porter unicode61'
);

-- 触发器：INSERT时同步FTS
CREATE TRIGGER IF NOT EXISTS patents_ai AFTER INSERT ON patents
BEGIN
    INSERT INTO patents_fts (rowid, patent_number, title, body)
    VALUES (NEW.rowid, COALESCE(NEW.patent_number, ''), NEW.title, NEW.content);
END;

-- 触发器：UPDATE时同步FTS
CREATE TRIGGER IF NOT EXISTS patents_au AFTER UPDATE ON patents
BEGIN
    DELETE FROM patents_fts WHERE rowid = OLD.rowid;
    INSERT INTO patents_fts (rowid, patent_number, title, body)
    VALUES (NEW.rowid, COALESCE(NEW.patent_number, ''), NEW.title, NEW.content);
END;

-- 触发器：DELETE时清理FTS
CREATE TRIGGER IF NOT EXISTS patents_ad AFTER DELETE ON patents
BEGIN
    DELETE FROM patents_fts WHERE rowid = OLD.rowid;
END;
`

// metaVectorDim index_meta中记录向量维度的键
// 第一条向量写入时固定，之后不同维度的写入一律拒绝
const metaVectorDim = "vector_dim"

// Store 数据存储
type Store struct {
	db     *sql.DB
	dbPath string
}

// New 创建新的Store实例
func New(dbPath string) (*Store, error) {
	// 初始化 sqlite-vec 扩展
	sqlite_vec.Auto()

	// 打开数据库
	// 外键约束是连接级设置，必须放在DSN里才能对连接池的每个连接生效
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 启用WAL模式（Write-Ahead Logging，数据库级设置，持久化）
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// 初始化schema
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB 返回底层数据库连接（用于高级操作）
func (s *Store) DB() *sql.DB {
	return s.db
}

// VectorDim 返回索引固定的向量维度，0表示尚未写入任何向量
func (s *Store) VectorDim() (int, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM index_meta WHERE key = ?", metaVectorDim).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read vector dim: %w", err)
	}

	dim, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("corrupt vector dim %q: %w", value, err)
	}
	return dim, nil
}

// hasVecTable 检查vectors_vec虚拟表是否存在
func (s *Store) hasVecTable() (bool, error) {
	var name string
	err := s.db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='vectors_vec'
	`).Scan(&name)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check vectors_vec table: %w", err)
	}
	return true, nil
}

// ensureVectorTable 确保vectors_vec虚拟表存在并记录索引维度
// 第一条向量决定维度；之后维度不一致直接报错，不做任何写入
func (s *Store) ensureVectorTable(dimensions int) error {
	exists, err := s.hasVecTable()
	if err != nil {
		return err
	}

	if !exists {
		createSQL := fmt.Sprintf(
			"CREATE VIRTUAL TABLE vectors_vec USING vec0(patent_id TEXT PRIMARY KEY, embedding float[%d] distance_metric=cosine)",
			dimensions,
		)
		if _, err := s.db.Exec(createSQL); err != nil {
			return fmt.Errorf("failed to create vectors_vec table: %w", err)
		}

		_, err = s.db.Exec(
			"INSERT OR REPLACE INTO index_meta (key, value) VALUES (?, ?)",
			metaVectorDim, strconv.Itoa(dimensions),
		)
		if err != nil {
			return fmt.Errorf("failed to record vector dim: %w", err)
		}
	}

	return nil
}

// blobToFloat32 将BLOB转换为float32切片
func blobToFloat32(blob []byte) []float32 {
	if len(blob)%4 != 0 {
		return nil
	}

	result := make([]float32, len(blob)/4)
	for i := range result {
		result[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}

	return result
}
