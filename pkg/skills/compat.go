package skills

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

// checkYAMLCompat runs the header through goldmark's YAML front matter
// extension, which is what most Markdown tooling downstream of the catalog
// uses to read skills.
func checkYAMLCompat(header string) error {
	doc := "---\n" + header + "\n---\n"

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert([]byte(doc), &buf, parser.WithContext(pctx)); err != nil {
		return errors.Wrap(err, "failed to parse markdown")
	}

	if _, err := meta.TryGet(pctx); err != nil {
		return errors.Wrap(err, "header is not valid YAML")
	}

	return nil
}
