package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite 将键值与输出文件保存在同一个 SQLite 数据库中。
type SQLite struct {
	db *sql.DB
}

// OpenSQLite 打开（必要时创建）数据库文件并初始化表结构。
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	// 单连接避免 :memory: 数据库在连接间不共享
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("设置 %s 失败: %w", pragma, err)
		}
	}

	s := &SQLite{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化表结构失败: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS blobs (
		namespace  TEXT NOT NULL,
		path       TEXT NOT NULL,
		data       BLOB NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (namespace, path)
	);`
	_, err := s.db.Exec(schema)
	return err
}

// Close 关闭数据库连接。
func (s *SQLite) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("关闭数据库失败: %w", err)
	}
	return nil
}

func (s *SQLite) Get(key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", key, err)
	}
	return v, nil
}

func (s *SQLite) Set(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("写入 %s 失败: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("删除 %s 失败: %w", key, err)
	}
	return nil
}

// Blobs 返回某个命名空间下的输出存储。
func (s *SQLite) Blobs(namespace string) BlobStore {
	return &sqliteBlobs{db: s.db, namespace: namespace}
}

// Prune 删除其他会话遗留的输出。
func (s *SQLite) Prune(keep string) error {
	_, err := s.db.Exec(
		`DELETE FROM blobs WHERE substr(namespace, 1, ?) = ? AND namespace != ?`,
		len(NamespacePrefix), NamespacePrefix, keep,
	)
	if err != nil {
		return fmt.Errorf("清理旧会话输出失败: %w", err)
	}
	return nil
}

type sqliteBlobs struct {
	db        *sql.DB
	namespace string
}

func (b *sqliteBlobs) Save(path string, data []byte) error {
	_, err := b.db.Exec(
		`INSERT OR REPLACE INTO blobs (namespace, path, data, created_at) VALUES (?, ?, ?, ?)`,
		b.namespace, EncodePath(path), data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("保存 %s 失败: %w", path, err)
	}
	return nil
}

func (b *sqliteBlobs) Get(path string) ([]byte, error) {
	var data []byte
	err := b.db.QueryRow(
		`SELECT data FROM blobs WHERE namespace = ? AND path = ?`, b.namespace, EncodePath(path),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", path, err)
	}
	return data, nil
}

func (b *sqliteBlobs) List() ([]string, error) {
	rows, err := b.db.Query(`SELECT path FROM blobs WHERE namespace = ? ORDER BY path`, b.namespace)
	if err != nil {
		return nil, fmt.Errorf("列出输出失败: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var enc string
		if err := rows.Scan(&enc); err != nil {
			return nil, err
		}
		p, err := DecodePath(enc)
		if err != nil {
			return nil, fmt.Errorf("路径 %s 解码失败: %w", enc, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (b *sqliteBlobs) DeleteAll() error {
	if _, err := b.db.Exec(`DELETE FROM blobs WHERE namespace = ?`, b.namespace); err != nil {
		return fmt.Errorf("清空 %s 失败: %w", b.namespace, err)
	}
	return nil
}
