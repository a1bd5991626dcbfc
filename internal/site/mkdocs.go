package site

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	syncerrors "git.home.luguber.info/inful/wikimirror/internal/errors"
	"git.home.luguber.info/inful/wikimirror/internal/logfields"
)

// MkdocsConfig merges generated values into an mkdocs.yml. Only the keys this
// tool owns are regenerated; theme, plugins, and every other hand-maintained
// key round-trip untouched.
type MkdocsConfig struct {
	Path string // mkdocs.yml location
}

// defaultMkdocs is the starting document when no config exists yet.
func defaultMkdocs() map[string]any {
	return map[string]any{
		"theme": map[string]any{"name": "material"},
	}
}

// Update writes the config with the generated nav and docs_dir. siteName is
// applied only when the file does not already declare one, so a customized
// title survives re-syncs.
func (m *MkdocsConfig) Update(siteName, docsDir string, nav []any) error {
	root, err := m.load()
	if err != nil {
		return err
	}

	root["nav"] = nav
	root["docs_dir"] = filepath.ToSlash(docsDir)
	if name, ok := root["site_name"].(string); !ok || name == "" {
		root["site_name"] = siteName
	}

	data, err := yaml.Marshal(root)
	if err != nil {
		return syncerrors.Wrap(err, syncerrors.CategoryInternal, syncerrors.SeverityFatal, "marshal site config")
	}
	if err := os.WriteFile(m.Path, data, 0o644); err != nil {
		return syncerrors.EmitError(m.Path, err)
	}
	slog.Info("site config updated", logfields.Path(m.Path))
	return nil
}

func (m *MkdocsConfig) load() (map[string]any, error) {
	data, err := os.ReadFile(m.Path)
	if os.IsNotExist(err) {
		return defaultMkdocs(), nil
	}
	if err != nil {
		return nil, syncerrors.EmitError(m.Path, err)
	}

	root := map[string]any{}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, syncerrors.Wrap(err, syncerrors.CategoryConfig, syncerrors.SeverityFatal, "parse existing site config").
			WithContext("path", m.Path)
	}
	if root == nil {
		root = defaultMkdocs()
	}
	return root, nil
}
