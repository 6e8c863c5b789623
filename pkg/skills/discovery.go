package skills

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/jingkaihe/skillkit/pkg/frontmatter"
	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/utils"
)

// DefaultSkillsDir is the repo-local skills directory.
const DefaultSkillsDir = "./.claude/skills"

var (
	// DefaultExclude skips hidden and underscore-prefixed folders.
	DefaultExclude = []string{".*", "_*"}

	// HiddenOnly skips hidden folders only.
	HiddenOnly = []string{".*"}
)

// Discovery finds skill folders under the configured directories.
type Discovery struct {
	skillDirs   []string
	exclude     []string
	filter      *utils.NameFilter
	concurrency int
}

// Option is a function that configures a Discovery
type Option func(*Discovery) error

// WithSkillDirs sets the directories to scan. Earlier directories take
// precedence when two contain a folder with the same name.
func WithSkillDirs(dirs ...string) Option {
	return func(d *Discovery) error {
		d.skillDirs = dirs
		return nil
	}
}

// WithDefaultDirs scans the repo-local skills directory.
func WithDefaultDirs() Option {
	return func(d *Discovery) error {
		d.skillDirs = []string{DefaultSkillsDir}
		return nil
	}
}

// WithExclude replaces the folder exclusion patterns.
func WithExclude(patterns ...string) Option {
	return func(d *Discovery) error {
		for _, p := range patterns {
			if !doublestar.ValidatePattern(p) {
				return errors.Errorf("invalid exclude pattern %q", p)
			}
		}
		d.exclude = patterns
		return nil
	}
}

// WithFilter restricts discovery to folders selected by the filter.
func WithFilter(filter *utils.NameFilter) Option {
	return func(d *Discovery) error {
		d.filter = filter
		return nil
	}
}

// WithConcurrency bounds the number of skills loaded in parallel.
func WithConcurrency(n int) Option {
	return func(d *Discovery) error {
		if n < 0 {
			return errors.Errorf("concurrency must not be negative, got %d", n)
		}
		if n > 0 {
			d.concurrency = n
		}
		return nil
	}
}

// NewDiscovery creates a new skill discovery instance
func NewDiscovery(opts ...Option) (*Discovery, error) {
	d := &Discovery{
		skillDirs:   []string{DefaultSkillsDir},
		exclude:     DefaultExclude,
		concurrency: runtime.NumCPU(),
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// SkillDirs returns the directories being scanned.
func (d *Discovery) SkillDirs() []string {
	return d.skillDirs
}

// Concurrency returns the bound on parallel skill loads.
func (d *Discovery) Concurrency() int {
	return d.concurrency
}

// Folder is a candidate skill directory. The SKILL.md file may be absent.
type Folder struct {
	ID        string
	Directory string
}

// SkillPath returns the path of the folder's SKILL.md.
func (f Folder) SkillPath() string {
	return filepath.Join(f.Directory, FileName)
}

// Folders lists candidate skill folders sorted by name. Folders matching an
// exclude pattern or rejected by the filter are skipped. Missing skill
// directories are ignored.
func (d *Discovery) Folders(ctx context.Context) ([]Folder, error) {
	seen := make(map[string]bool)
	folders := make([]Folder, 0)

	for _, dir := range d.skillDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				logger.G(ctx).WithField("dir", dir).Debug("skills directory does not exist")
				continue
			}
			return nil, errors.Wrapf(err, "failed to read skills directory %s", dir)
		}

		for _, entry := range entries {
			name := entry.Name()
			path := filepath.Join(dir, name)

			info, err := os.Stat(path)
			if err != nil || !info.IsDir() {
				continue
			}
			if d.excluded(name) || !d.filter.Match(name) || seen[name] {
				continue
			}

			seen[name] = true
			folders = append(folders, Folder{ID: name, Directory: path})
		}
	}

	sort.Slice(folders, func(i, j int) bool {
		return folders[i].ID < folders[j].ID
	})

	return folders, nil
}

func (d *Discovery) excluded(name string) bool {
	for _, pattern := range d.exclude {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// LoadSkills loads every folder that contains a SKILL.md. Folders without
// one, or whose header cannot be parsed, are skipped with a debug log.
func (d *Discovery) LoadSkills(ctx context.Context) ([]*Skill, error) {
	folders, err := d.Folders(ctx)
	if err != nil {
		return nil, err
	}

	loaded, err := Collect(ctx, d.concurrency, folders, func(ctx context.Context, f Folder) (*Skill, error) {
		skill, err := LoadSkill(f)
		if err != nil {
			logger.G(ctx).WithError(err).WithField("skill", f.ID).Debug("skipping folder")
			return nil, nil
		}
		return skill, nil
	})
	if err != nil {
		return nil, err
	}

	skills := make([]*Skill, 0, len(loaded))
	for _, s := range loaded {
		if s != nil {
			skills = append(skills, s)
		}
	}
	return skills, nil
}

// GetSkill returns the skill in the named folder.
func (d *Discovery) GetSkill(ctx context.Context, id string) (*Skill, error) {
	folders, err := d.Folders(ctx)
	if err != nil {
		return nil, err
	}

	for _, f := range folders {
		if f.ID == id {
			return LoadSkill(f)
		}
	}

	return nil, errors.Errorf("skill '%s' not found", id)
}

// LoadSkill reads and parses the folder's SKILL.md.
func LoadSkill(f Folder) (*Skill, error) {
	path := f.SkillPath()
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skill file")
	}

	h, err := frontmatter.Parse(string(content))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	return &Skill{
		ID:        f.ID,
		Directory: f.Directory,
		Path:      path,
		Header:    h,
	}, nil
}

// Collect runs fn over items with at most limit calls in flight and returns
// the results in input order. The first error cancels the remaining work.
func Collect[T, R any](ctx context.Context, limit int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(items))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := fn(gctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
