package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Dir 把输出文件写入 root/namespace 目录，每个路径段经过 EncodePath 转义。
type Dir struct {
	root string
}

// NewDir 创建基于目录的输出存储。
func NewDir(root, namespace string) *Dir {
	return &Dir{root: filepath.Join(root, namespace)}
}

// Root 返回命名空间目录。
func (d *Dir) Root() string { return d.root }

func (d *Dir) file(path string) string {
	return filepath.Join(d.root, filepath.FromSlash(EncodePath(strings.TrimPrefix(path, "/"))))
}

func (d *Dir) Save(path string, data []byte) error {
	target := d.file(path)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

func (d *Dir) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(d.file(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (d *Dir) List() ([]string, error) {
	var out []string
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if entry.IsDir() || strings.HasSuffix(p, ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		decoded, err := DecodePath(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		out = append(out, decoded)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (d *Dir) DeleteAll() error {
	return os.RemoveAll(d.root)
}

// DirSpace 在 Root 下为每个命名空间建立一个子目录。
type DirSpace struct {
	Root string
}

func (s DirSpace) Blobs(namespace string) BlobStore { return NewDir(s.Root, namespace) }

func (s DirSpace) Prune(keep string) error {
	entries, err := os.ReadDir(s.Root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() || e.Name() == keep || !strings.HasPrefix(e.Name(), NamespacePrefix) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.Root, e.Name())); err != nil {
			return fmt.Errorf("清理旧会话输出失败: %w", err)
		}
	}
	return nil
}
