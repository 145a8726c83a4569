// Package store 提供键值仓库与输出文件存储。
package store

import (
	"errors"
	"net/url"
	"strings"
)

// ErrNotFound 表示键或路径不存在。
var ErrNotFound = errors.New("store: 未找到")

// KV 是注入到字形解析器、日志与会话日志中的键值仓库。
type KV interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// BlobStore 保存某个批次会话的输出文件，路径可以是任意 Unicode 字符串。
type BlobStore interface {
	Save(path string, data []byte) error
	// Get 在路径不存在时返回 ErrNotFound。
	Get(path string) ([]byte, error)
	List() ([]string, error)
	DeleteAll() error
}

// Space 按命名空间提供输出存储，并能清理其他会话遗留的输出。
type Space interface {
	Blobs(namespace string) BlobStore
	// Prune 删除除 keep 以外所有以 NamespacePrefix 开头的命名空间。
	Prune(keep string) error
}

// NamespacePrefix 是批次输出命名空间的前缀。
const NamespacePrefix = "txt2pdf-session-"

// Namespace 返回会话对应的输出命名空间。
func Namespace(sessionID string) string { return NamespacePrefix + sessionID }

// EncodePath 对每个路径段单独转义，得到可逆的 ASCII 表示。
// "." 与 ".." 段同样被转义，编码结果不会跳出所在目录。
func EncodePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		switch s {
		case ".":
			segs[i] = "%2E"
		case "..":
			segs[i] = "%2E%2E"
		default:
			segs[i] = url.PathEscape(s)
		}
	}
	return strings.Join(segs, "/")
}

// DecodePath 是 EncodePath 的逆操作。
func DecodePath(p string) (string, error) {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		d, err := url.PathUnescape(s)
		if err != nil {
			return "", err
		}
		segs[i] = d
	}
	return strings.Join(segs, "/"), nil
}
