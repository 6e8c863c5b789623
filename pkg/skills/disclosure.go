package skills

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/aymanbagabas/go-udiff"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"

	"github.com/jingkaihe/skillkit/pkg/frontmatter"
)

const (
	disclosureKey         = "progressive_disclosure:"
	minLevel2Tokens       = 2000
	maxLevel2Tokens       = 10000
	charsPerTokenEstimate = 4
)

// Level2Tokens estimates the token cost of loading the full document,
// clamped to [2000, 10000].
func Level2Tokens(doc string) int {
	tokens := utf8.RuneCountInString(doc) / charsPerTokenEstimate
	return min(maxLevel2Tokens, max(minLevel2Tokens, tokens))
}

func disclosureBlock(level2 int) string {
	return fmt.Sprintf("\n# Progressive Disclosure Configuration\n%s\n  enabled: true\n  level1_tokens: ~100\n  level2_tokens: ~%d", disclosureKey, level2)
}

// AddProgressiveDisclosure inserts a progressive_disclosure block into the
// document header, directly after the triggers section when there is one
// and at the end of the header otherwise. It reports false for documents
// that already mention progressive_disclosure.
func AddProgressiveDisclosure(doc string) (string, bool, error) {
	if strings.Contains(doc, disclosureKey) {
		return doc, false, nil
	}

	header, body, err := frontmatter.Split(doc)
	if err != nil {
		return doc, false, err
	}

	lines := strings.Split(header, "\n")
	insertAt := len(lines)
	for i, line := range lines {
		if !strings.HasPrefix(line, "triggers:") || strings.TrimSpace(strings.TrimPrefix(line, "triggers:")) != "" {
			continue
		}
		insertAt = i + 1
		for insertAt < len(lines) && strings.HasPrefix(lines[insertAt], "  ") {
			insertAt++
		}
		break
	}

	before := strings.TrimRight(strings.Join(lines[:insertAt], "\n"), " \t\r\n")
	after := strings.TrimLeft(strings.Join(lines[insertAt:], "\n"), "\n")

	newHeader := before + disclosureBlock(Level2Tokens(doc))
	if after != "" {
		newHeader += "\n" + after
	}

	return frontmatter.Delimiter + "\n" + newHeader + "\n" + frontmatter.Delimiter + "\n" + body, true, nil
}

// DisclosureChange describes the outcome of adding progressive disclosure
// to one SKILL.md file.
type DisclosureChange struct {
	Path    string
	Updated bool
	Before  string
	After   string
}

// Diff renders the change as a unified diff.
func (c DisclosureChange) Diff() string {
	if !c.Updated {
		return ""
	}
	return udiff.Unified(c.Path, c.Path, c.Before, c.After)
}

// ApplyDisclosure adds progressive disclosure to the file at path. With
// dryRun set the file is left untouched and the change is only computed.
func ApplyDisclosure(path string, dryRun bool) (DisclosureChange, error) {
	change := DisclosureChange{Path: path}

	if dryRun {
		data, err := lockedfile.Read(path)
		if err != nil {
			return change, errors.Wrapf(err, "failed to read %s", path)
		}
		change.Before = string(data)
		after, updated, err := AddProgressiveDisclosure(change.Before)
		if err != nil {
			return change, errors.Wrapf(err, "failed to update %s", path)
		}
		change.After, change.Updated = after, updated
		return change, nil
	}

	if _, err := os.Stat(path); err != nil {
		return change, errors.Wrapf(err, "failed to stat %s", path)
	}

	err := lockedfile.Transform(path, func(data []byte) ([]byte, error) {
		change.Before = string(data)
		after, updated, err := AddProgressiveDisclosure(change.Before)
		if err != nil {
			return nil, err
		}
		change.After, change.Updated = after, updated
		return []byte(after), nil
	})
	if err != nil {
		return change, errors.Wrapf(err, "failed to update %s", path)
	}

	return change, nil
}
