package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ByLCY/txt2pdf/journal"
)

// IgnoredExtensions 中的文件不会进入转换队列。
var IgnoredExtensions = []string{".png", ".ttf", ".otf", ".woff", ".woff2"}

// Task 是一个待转换的文件。Source 为空时使用 Data。
type Task struct {
	Source   string
	Data     []byte
	FileName string
	// Path 是输出的逻辑目录，BasePath 是所属输入槽的根目录。
	Path     string
	BasePath string
	Size     int64

	// restored 表示任务由会话日志重建，内存内容已不可用。
	restored bool
}

// FileTask 以磁盘文件创建任务。
func FileTask(source, path, basePath string) (Task, error) {
	info, err := os.Stat(source)
	if err != nil {
		return Task{}, fmt.Errorf("读取 %s 失败: %w", source, err)
	}
	if info.IsDir() {
		return Task{}, fmt.Errorf("%s 是目录", source)
	}
	return Task{
		Source:   source,
		FileName: filepath.Base(source),
		Path:     path,
		BasePath: basePath,
		Size:     info.Size(),
	}, nil
}

// MemoryTask 以内存内容创建任务。内存任务无法在重启后恢复。
func MemoryTask(fileName, path string, data []byte) Task {
	return Task{FileName: fileName, Path: path, BasePath: path, Data: data, Size: int64(len(data))}
}

// Meta 返回写入会话日志的稳定标识信息。
func (t Task) Meta() journal.Item {
	return journal.Item{Source: t.Source, Path: t.Path, BasePath: t.BasePath, FileName: t.FileName, Size: t.Size}
}

// TaskFromMeta 由会话日志中的信息重建任务。
func TaskFromMeta(m journal.Item) Task {
	return Task{Source: m.Source, Path: m.Path, BasePath: m.BasePath, FileName: m.FileName, Size: m.Size, restored: true}
}

// Text 读取并解码任务内容。带 BOM 的 UTF-16 与 UTF-8 均被识别，其余按 UTF-8 处理。
// 由会话日志重建的内存任务返回 ErrContentLost。
func (t Task) Text() (string, error) {
	if t.restored && t.Source == "" {
		return "", fmt.Errorf("%s: %w", t.FileName, ErrContentLost)
	}
	raw := t.Data
	if t.Source != "" {
		var err error
		if raw, err = os.ReadFile(t.Source); err != nil {
			return "", fmt.Errorf("读取 %s 失败: %w", t.Source, err)
		}
	}
	return Decode(raw)
}

// Decode 按 BOM 解码文本，去掉 BOM 本身。
func Decode(raw []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return "", fmt.Errorf("解码失败: %w", err)
	}
	return string(out), nil
}

// Slot 是一个输入槽：若干文件或目录，输出归入同一个根目录。
type Slot struct {
	ID         string
	CustomPath string
	Paths      []string
}

// BasePath 返回输出根目录，CustomPath 优先。
func (s Slot) BasePath() string {
	if s.CustomPath != "" {
		return strings.TrimSuffix(filepath.ToSlash(s.CustomPath), "/")
	}
	return s.ID
}

var subscripts = strings.NewReplacer(
	"0", "₀", "1", "₁", "2", "₂", "3", "₃", "4", "₄",
	"5", "₅", "6", "₆", "7", "₇", "8", "₈", "9", "₉",
)

// SlotID 返回第 i 个槽（从 0 开始）的默认编号，如 A₁。
func SlotID(i int) string {
	return "A" + subscripts.Replace(strconv.Itoa(i+1))
}

// FilesMode 把槽内所有文件平铺到槽根目录，目录会被递归展开。
func FilesMode(slot Slot) ([]Task, error) {
	base := slot.BasePath()
	var tasks []Task
	err := walkSlot(slot, func(file, _ string) error {
		t, err := FileTask(file, base, base)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
		return nil
	})
	return tasks, err
}

// TreeMode 保留目录结构：目录中的文件输出到 <槽根>/<目录名>/<相对目录>。
func TreeMode(slot Slot) ([]Task, error) {
	base := slot.BasePath()
	var tasks []Task
	err := walkSlot(slot, func(file, relDir string) error {
		path := base
		if relDir != "" {
			path = base + "/" + relDir
		}
		t, err := FileTask(file, path, base)
		if err != nil {
			return err
		}
		tasks = append(tasks, t)
		return nil
	})
	return tasks, err
}

// walkSlot 遍历槽内文件，relDir 是文件所在目录相对于所选目录父级的路径，
// 直接选中的文件 relDir 为空。
func walkSlot(slot Slot, fn func(file, relDir string) error) error {
	for _, root := range slot.Paths {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("读取 %s 失败: %w", root, err)
		}
		if !info.IsDir() {
			if !Ignored(root) {
				if err := fn(root, ""); err != nil {
					return err
				}
			}
			continue
		}
		parent := filepath.Dir(filepath.Clean(root))
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !d.Type().IsRegular() || Ignored(p) {
				return nil
			}
			rel, err := filepath.Rel(parent, filepath.Dir(p))
			if err != nil {
				return err
			}
			return fn(p, filepath.ToSlash(rel))
		})
		if err != nil {
			return fmt.Errorf("遍历 %s 失败: %w", root, err)
		}
	}
	return nil
}

// Ignored 判断文件是否因扩展名被排除。
func Ignored(name string) bool {
	lower := strings.ToLower(name)
	return lo.SomeBy(IgnoredExtensions, func(ext string) bool { return strings.HasSuffix(lower, ext) })
}
