package site

import (
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/wikimirror/internal/docmodel"
	syncerrors "git.home.luguber.info/inful/wikimirror/internal/errors"
	"git.home.luguber.info/inful/wikimirror/internal/logfields"
)

// RenderedPage is a finished Markdown document ready to hit the disk.
type RenderedPage struct {
	Path    string // relative to the docs dir
	Content []byte
}

// Emitter writes the docs tree. Emission is clear-then-write: the previous
// tree is removed first so pages deleted upstream do not linger in the mirror.
type Emitter struct {
	docsDir string
}

// NewEmitter builds an Emitter rooted at docsDir.
func NewEmitter(docsDir string) *Emitter {
	return &Emitter{docsDir: docsDir}
}

// DocsDir returns the emission root.
func (e *Emitter) DocsDir() string { return e.docsDir }

// Emit replaces the docs dir with the given pages and assets.
func (e *Emitter) Emit(pages []RenderedPage, assets []*docmodel.Asset) error {
	if err := e.clean(); err != nil {
		return err
	}
	for _, p := range pages {
		if err := e.writeFile(p.Path, p.Content); err != nil {
			return err
		}
	}
	for _, a := range assets {
		if err := e.writeFile(a.LocalPath, a.Data); err != nil {
			return err
		}
	}
	slog.Info("docs tree written",
		logfields.Path(e.docsDir),
		slog.Int("pages", len(pages)),
		slog.Int("assets", len(assets)))
	return nil
}

func (e *Emitter) clean() error {
	if err := os.RemoveAll(e.docsDir); err != nil {
		return syncerrors.EmitError(e.docsDir, err)
	}
	if err := os.MkdirAll(e.docsDir, 0o755); err != nil {
		return syncerrors.EmitError(e.docsDir, err)
	}
	return nil
}

func (e *Emitter) writeFile(rel string, data []byte) error {
	abs := filepath.Join(e.docsDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return syncerrors.EmitError(abs, err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return syncerrors.EmitError(abs, err)
	}
	return nil
}
