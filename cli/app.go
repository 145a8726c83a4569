package cli

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/ByLCY/txt2pdf/batch"
	"github.com/ByLCY/txt2pdf/config"
	"github.com/ByLCY/txt2pdf/fonts"
	"github.com/ByLCY/txt2pdf/glyph"
	"github.com/ByLCY/txt2pdf/journal"
	"github.com/ByLCY/txt2pdf/layout"
	"github.com/ByLCY/txt2pdf/logger"
	"github.com/ByLCY/txt2pdf/renderer"
	canvasrenderer "github.com/ByLCY/txt2pdf/renderer/canvas"
	"github.com/ByLCY/txt2pdf/store"
	"github.com/ByLCY/txt2pdf/syntax"
)

// app 持有一次命令执行所需的全部组件。
type app struct {
	cfg *config.Config
	log *zap.Logger

	db        *store.SQLite
	space     store.Space
	journal   *journal.Journal
	book      *fonts.Book
	glyphs    *glyph.Registry
	missing   *glyph.MissingLog
	resolver  *glyph.Resolver
	renderers *renderer.Registry
}

func (o *rootOptions) load() (*app, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}
	return newApp(cfg, logger.NewConsoleLogger(o.debug || cfg.Debug))
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}
	db, err := store.OpenSQLite(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		space:     db,
		journal:   journal.New(db),
		book:      fonts.NewBook(),
		glyphs:    glyph.NewRegistry(db),
		missing:   glyph.NewMissingLog(db),
		renderers: renderer.NewRegistry(),
	}
	if cfg.Storage == config.StorageDir {
		a.space = store.DirSpace{Root: cfg.OutputsDir()}
	}
	for _, src := range cfg.Fonts {
		if err := a.book.RegisterSource(src); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	a.resolver = glyph.NewResolver(a.book, a.missing, glyph.Options{Logger: log})
	canvasrenderer.Register(a.renderers, canvasrenderer.Options{
		Book:        a.book,
		Glyphs:      a.glyphs,
		Missing:     a.missing,
		Palette:     syntax.DefaultPalette,
		DPI:         cfg.Render.DPI,
		JPEGQuality: cfg.Render.JPEGQuality,
		YieldEvery:  cfg.Render.YieldEvery,
		Debug:       layout.DebugOptions{Dir: cfg.DebugDir},
		Logger:      log,
	})
	return a, nil
}

func (a *app) pipeline(onEvent func(batch.Event), onProgress func(batch.Snapshot)) *batch.Pipeline {
	return batch.New(batch.Options{
		Renderers:        a.renderers,
		Space:            a.space,
		Journal:          a.journal,
		Resolver:         a.resolver,
		Missing:          a.missing,
		CompleteTemplate: a.cfg.Archive.CompleteTemplate,
		PartTemplate:     a.cfg.Archive.PartTemplate,
		MaxStoreFailures: a.cfg.MaxStoreFailures,
		Logger:           a.log,
		OnEvent:          onEvent,
		OnProgress:       onProgress,
	})
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("关闭数据库失败", zap.Error(err))
	}
	_ = a.log.Sync()
}
