package catalog

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
)

const (
	// YAMLFileName is the machine-readable catalog, relative to the output dir.
	YAMLFileName = "skills-catalog.yaml"
	// MarkdownFileName is the human-readable catalog, relative to the output dir.
	MarkdownFileName = "docs/skills-catalog.md"
)

// WriteFiles renders both catalogs under outputDir and returns their paths.
func (c *Catalog) WriteFiles(outputDir string) (yamlPath, mdPath string, err error) {
	yamlPath = filepath.Join(outputDir, YAMLFileName)
	mdPath = filepath.Join(outputDir, filepath.FromSlash(MarkdownFileName))

	if err := os.MkdirAll(filepath.Dir(mdPath), 0o755); err != nil {
		return "", "", errors.Wrap(err, "failed to create docs directory")
	}

	var buf bytes.Buffer
	if err := c.WriteYAML(&buf); err != nil {
		return "", "", err
	}
	if err := lockedfile.Write(yamlPath, &buf, 0o644); err != nil {
		return "", "", errors.Wrapf(err, "failed to write %s", yamlPath)
	}

	buf.Reset()
	if err := c.WriteMarkdown(&buf); err != nil {
		return "", "", err
	}
	if err := lockedfile.Write(mdPath, &buf, 0o644); err != nil {
		return "", "", errors.Wrapf(err, "failed to write %s", mdPath)
	}

	return yamlPath, mdPath, nil
}
