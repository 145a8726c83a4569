// Package config 读取 txt2pdf 的配置文件与环境变量。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/viper"

	"github.com/ByLCY/txt2pdf/batch"
	"github.com/ByLCY/txt2pdf/binding"
	"github.com/ByLCY/txt2pdf/fonts"
	"github.com/ByLCY/txt2pdf/glyph"
	"github.com/ByLCY/txt2pdf/layout"
	canvasrenderer "github.com/ByLCY/txt2pdf/renderer/canvas"
)

// 输出存储类型。
const (
	StorageSQLite = "sqlite"
	StorageDir    = "dir"
)

// FileName 是默认配置文件名（不含扩展名）。
const FileName = ".txt2pdf"

// ArchiveConfig 是归档文件名模板。
type ArchiveConfig struct {
	CompleteTemplate string `mapstructure:"complete_template"`
	PartTemplate     string `mapstructure:"part_template"`
}

// RenderConfig 是渲染引擎参数。
type RenderConfig struct {
	DPI         float64 `mapstructure:"dpi"`
	JPEGQuality int     `mapstructure:"jpeg_quality"`
	YieldEvery  int     `mapstructure:"yield_every"`
}

// Config 是完整配置。
type Config struct {
	Paper      string                 `mapstructure:"paper"`
	Border     layout.BorderConfig    `mapstructure:"border"`
	Engine     string                 `mapstructure:"engine"`
	Mode       string                 `mapstructure:"mode"`
	OutputMode string                 `mapstructure:"output_mode"`
	Fonts      []fonts.Source         `mapstructure:"fonts"`
	PreFlight  layout.PreFlightConfig `mapstructure:"preflight"`

	// DataDir 存放会话数据库与输出文件。
	DataDir   string `mapstructure:"data_dir"`
	OutputDir string `mapstructure:"output_dir"`
	Storage   string `mapstructure:"storage"`

	MaxStoreFailures int                 `mapstructure:"max_store_failures"`
	Archive          ArchiveConfig       `mapstructure:"archive"`
	Render           RenderConfig        `mapstructure:"render"`
	Learner          glyph.LearnerConfig `mapstructure:"learner"`

	Debug    bool   `mapstructure:"debug"`
	DebugDir string `mapstructure:"debug_dir"`
}

// LoadConfig 读取配置。path 为空时依次查找当前目录与家目录下的 .txt2pdf.yaml，
// 找不到配置文件时使用默认值。环境变量以 TXT2PDF_ 为前缀，如 TXT2PDF_RENDER_DPI。
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("TXT2PDF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig 把配置写入 path，父目录不存在时自动创建。
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, FileName+".yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.MergeConfigMap(structToMap(cfg)); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}

// NewDefaultConfig 返回默认配置。
func NewDefaultConfig() *Config {
	return &Config{
		Paper:      "A4",
		Border:     layout.BorderConfig{Mode: layout.BorderMM, Value: layout.DefaultBorder},
		Mode:       string(batch.ModeSafe),
		OutputMode: string(batch.OutputMixed),
		PreFlight:  layout.PreFlightConfig{HighlightEnabled: true},
		DataDir:    defaultDataDir(),
		OutputDir:  ".",
		Storage:    StorageSQLite,
		Archive: ArchiveConfig{
			CompleteTemplate: binding.CompleteTemplate,
			PartTemplate:     binding.PartTemplate,
		},
		MaxStoreFailures: batch.DefaultMaxStoreFailures,
		Render: RenderConfig{
			DPI:         canvasrenderer.DefaultDPI,
			JPEGQuality: canvasrenderer.DefaultJPEGQuality,
			YieldEvery:  canvasrenderer.DefaultYieldEvery,
		},
	}
}

// Validate 检查枚举值与数值范围。
func (c *Config) Validate() error {
	if !lo.Contains([]string{string(batch.ModeSafe), string(batch.ModeFast)}, strings.ToUpper(c.Mode)) {
		return fmt.Errorf("未知的处理模式：%s", c.Mode)
	}
	if !lo.Contains([]string{string(batch.OutputMixed), string(batch.OutputMirror)}, strings.ToUpper(c.OutputMode)) {
		return fmt.Errorf("未知的输出模式：%s", c.OutputMode)
	}
	if !lo.Contains([]layout.BorderMode{layout.BorderMM, layout.BorderPercent}, layout.BorderMode(strings.ToUpper(string(c.Border.Mode)))) {
		return fmt.Errorf("未知的边距模式：%s", c.Border.Mode)
	}
	if c.Border.Value < 0 {
		return fmt.Errorf("边距不能为负数：%g", c.Border.Value)
	}
	if !lo.Contains([]string{StorageSQLite, StorageDir}, c.Storage) {
		return fmt.Errorf("未知的存储类型：%s", c.Storage)
	}
	if _, err := layout.ResolvePaper(c.Paper); err != nil {
		return err
	}
	if c.Render.JPEGQuality < 0 || c.Render.JPEGQuality > 100 {
		return fmt.Errorf("JPEG 质量应在 1-100 之间：%d", c.Render.JPEGQuality)
	}
	for _, f := range c.Fonts {
		if strings.TrimSpace(f.Name) == "" || f.Path == "" {
			return fmt.Errorf("字体配置缺少名称或路径：%+v", f)
		}
	}
	return nil
}

// Params 把配置转换为批次参数。
func (c *Config) Params() (batch.Params, error) {
	paper, err := layout.ResolvePaper(c.Paper)
	if err != nil {
		return batch.Params{}, err
	}
	border := c.Border
	border.Mode = layout.BorderMode(strings.ToUpper(string(border.Mode)))
	preflight := c.PreFlight
	return batch.Params{
		Engine:     c.Engine,
		PageWidth:  paper.Width,
		PageHeight: paper.Height,
		Fonts:      c.Fonts,
		Border:     border,
		PreFlight:  &preflight,
		OutputMode: batch.OutputMode(strings.ToUpper(c.OutputMode)),
		Mode:       batch.Mode(strings.ToUpper(c.Mode)),
	}, nil
}

// DatabasePath 返回会话数据库路径。
func (c *Config) DatabasePath() string { return filepath.Join(c.DataDir, "txt2pdf.db") }

// OutputsDir 返回 dir 存储类型下的输出根目录。
func (c *Config) OutputsDir() string { return filepath.Join(c.DataDir, "outputs") }

func defaultDataDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "txt2pdf")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".txt2pdf")
	}
	return "./txt2pdf-data"
}

func setDefaults(v *viper.Viper) {
	for key, value := range structToMap(NewDefaultConfig()) {
		v.SetDefault(key, value)
	}
}

func structToMap(c *Config) map[string]any {
	return map[string]any{
		"paper": c.Paper,
		"border": map[string]any{
			"mode":  string(c.Border.Mode),
			"value": c.Border.Value,
		},
		"engine":      c.Engine,
		"mode":        c.Mode,
		"output_mode": c.OutputMode,
		"fonts": lo.Map(c.Fonts, func(f fonts.Source, _ int) map[string]any {
			return map[string]any{"name": f.Name, "path": f.Path}
		}),
		"preflight": map[string]any{
			"render_markdown":    c.PreFlight.RenderMarkdown,
			"highlight_enabled":  c.PreFlight.HighlightEnabled,
			"enabled_extensions": c.PreFlight.EnabledExtensions,
		},
		"data_dir":           c.DataDir,
		"output_dir":         c.OutputDir,
		"storage":            c.Storage,
		"max_store_failures": c.MaxStoreFailures,
		"archive": map[string]any{
			"complete_template": c.Archive.CompleteTemplate,
			"part_template":     c.Archive.PartTemplate,
		},
		"render": map[string]any{
			"dpi":          c.Render.DPI,
			"jpeg_quality": c.Render.JPEGQuality,
			"yield_every":  c.Render.YieldEvery,
		},
		"learner": map[string]any{
			"base_url": c.Learner.BaseURL,
			"key":      c.Learner.Key,
			"model":    c.Learner.Model,
		},
		"debug":     c.Debug,
		"debug_dir": c.DebugDir,
	}
}
