package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/skillkit/pkg/frontmatter"
	"github.com/jingkaihe/skillkit/pkg/logger"
	"github.com/jingkaihe/skillkit/pkg/presenter"
	"github.com/jingkaihe/skillkit/pkg/skills"
	"github.com/jingkaihe/skillkit/pkg/triggers"
)

// WatchConfig holds configuration for the watch command
type WatchConfig struct {
	Skills       []string
	DebounceTime int
	Verbose      bool
	RunTests     bool
}

// NewWatchConfig creates a new WatchConfig with default values
func NewWatchConfig() *WatchConfig {
	return &WatchConfig{
		Skills:       []string{},
		DebounceTime: 300,
		Verbose:      false,
		RunTests:     true,
	}
}

// Validate validates the WatchConfig and returns an error if invalid
func (c *WatchConfig) Validate() error {
	if c.DebounceTime < 0 {
		return errors.Errorf("debounce time cannot be negative: %d", c.DebounceTime)
	}
	return nil
}

// FileEvent is a debounced change to one skill folder
type FileEvent struct {
	Path string
	Op   fsnotify.Op
	Time time.Time
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-validate and re-test skills as they change",
	Long: `Watch the skills directory and re-run validation, and the trigger tests
when present, for every skill whose files change. Rapid successive writes to
the same skill are coalesced.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		config := getWatchConfigFromFlags(cmd)
		if err := config.Validate(); err != nil {
			return errors.Wrap(err, "invalid configuration")
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		d, err := skills.NewDiscoveryFromConfig(ctx, skills.HiddenOnly, config.Skills...)
		if err != nil {
			return err
		}

		return runWatchMode(ctx, d, skills.NewValidatorFromConfig(), config)
	},
}

func init() {
	defaults := NewWatchConfig()
	watchCmd.Flags().StringSliceP("skill", "s", defaults.Skills, "Skill names or glob patterns to watch")
	watchCmd.Flags().IntP("debounce", "d", defaults.DebounceTime, "Debounce time in milliseconds for file change events")
	watchCmd.Flags().BoolP("verbose", "v", defaults.Verbose, "Show every outcome")
	watchCmd.Flags().Bool("tests", defaults.RunTests, "Also run trigger tests on change")
}

func getWatchConfigFromFlags(cmd *cobra.Command) *WatchConfig {
	config := NewWatchConfig()

	if patterns, err := cmd.Flags().GetStringSlice("skill"); err == nil {
		config.Skills = patterns
	}
	if debounceTime, err := cmd.Flags().GetInt("debounce"); err == nil {
		config.DebounceTime = debounceTime
	}
	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil {
		config.Verbose = verbose
	}
	if runTests, err := cmd.Flags().GetBool("tests"); err == nil {
		config.RunTests = runTests
	}

	return config
}

func runWatchMode(ctx context.Context, d *skills.Discovery, v *skills.Validator, config *WatchConfig) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	roots := make([]string, 0, len(d.SkillDirs()))
	for _, dir := range d.SkillDirs() {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return errors.Wrapf(err, "failed to resolve %s", dir)
		}
		if err := addRecursive(ctx, watcher, abs); err != nil {
			return err
		}
		roots = append(roots, abs)
	}

	events := make(chan FileEvent)
	debouncedEvents := make(chan FileEvent)
	go debounceFileEvents(ctx, events, debouncedEvents, time.Duration(config.DebounceTime)*time.Millisecond)

	go func() {
		for {
			select {
			case event, ok := <-debouncedEvents:
				if !ok {
					return
				}
				logger.G(ctx).WithFields(map[string]any{
					"folder":    event.Path,
					"operation": event.Op.String(),
					"timestamp": event.Time,
				}).Debug("skill change detected")
				processSkillChange(ctx, d, v, event.Path, config)
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := addRecursive(ctx, watcher, event.Name); err != nil {
							logger.G(ctx).WithError(err).WithField("directory", event.Name).Warn("failed to watch new directory")
						}
					}
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}

				folder, ok := skillFolderOf(roots, event.Name)
				if !ok {
					continue
				}
				select {
				case events <- FileEvent{Path: folder, Op: event.Op, Time: time.Now()}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.G(ctx).WithError(err).Error("error watching files")
			case <-ctx.Done():
				return
			}
		}
	}()

	presenter.Info(fmt.Sprintf("Watching %s for skill changes... Press Ctrl+C to stop", strings.Join(d.SkillDirs(), ", ")))
	<-ctx.Done()
	presenter.Info("Stopped watching")
	return nil
}

// addRecursive watches dir and all its subdirectories except hidden ones.
func addRecursive(ctx context.Context, watcher *fsnotify.Watcher, dir string) error {
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		logger.G(ctx).WithField("directory", path).Debug("adding directory to watcher")
		return watcher.Add(path)
	})
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to watch %s", dir)
	}
	return nil
}

// skillFolderOf maps a changed path to the skill folder it belongs to: the
// first path element below one of the roots.
func skillFolderOf(roots []string, path string) (string, bool) {
	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			continue
		}
		first := strings.SplitN(filepath.ToSlash(rel), "/", 2)[0]
		return filepath.Join(root, first), true
	}
	return "", false
}

// debounceFileEvents coalesces rapid changes to the same skill folder.
func debounceFileEvents(ctx context.Context, input <-chan FileEvent, output chan<- FileEvent, delay time.Duration) {
	pending := make(map[string]*time.Timer)

	for {
		select {
		case event, ok := <-input:
			if !ok {
				for _, timer := range pending {
					timer.Stop()
				}
				return
			}
			if timer, exists := pending[event.Path]; exists {
				timer.Stop()
			}

			eventCopy := event
			pending[event.Path] = time.AfterFunc(delay, func() {
				select {
				case output <- eventCopy:
				case <-ctx.Done():
				}
			})
		case <-ctx.Done():
			for _, timer := range pending {
				timer.Stop()
			}
			return
		}
	}
}

// readSkillDocument reads SKILL.md, retrying while the file is empty or its
// header is incomplete, as happens mid-save.
func readSkillDocument(ctx context.Context, path string) (string, error) {
	var doc string

	err := retry.Do(
		func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			doc = string(data)
			if strings.TrimSpace(doc) == "" {
				return errors.New("file is empty")
			}
			if _, err := frontmatter.Parse(doc); err != nil {
				return err
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil && doc == "" {
		return "", err
	}
	return doc, nil
}

// checkSkill validates one skill folder and, when enabled, runs its
// trigger tests.
func checkSkill(ctx context.Context, p presenter.Presenter, v *skills.Validator, folder skills.Folder, config *WatchConfig) (skills.Result, *triggers.Report) {
	var result skills.Result
	doc, err := readSkillDocument(ctx, folder.SkillPath())
	if err != nil {
		result = v.ValidateFile(folder.ID, folder.SkillPath())
	} else {
		result = v.ValidateDocument(folder.ID, doc)
	}
	presenter.ValidationResult(p, result, true)

	if !config.RunTests {
		return result, nil
	}

	report, err := triggers.EvaluateSkill(folder.Directory)
	if err != nil {
		p.Error(err, fmt.Sprintf("failed to evaluate %s", folder.ID))
		return result, nil
	}
	report.Skill = folder.ID
	if report.HasTests {
		presenter.TestReport(p, report, config.Verbose)
	}
	return result, &report
}

func processSkillChange(ctx context.Context, d *skills.Discovery, v *skills.Validator, dir string, config *WatchConfig) {
	id := filepath.Base(dir)
	ctx = logger.WithSkill(ctx, id)

	folders, err := d.Folders(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Error("failed to list skill folders")
		return
	}

	for _, f := range folders {
		if f.ID != id {
			continue
		}
		p := presenter.Default()
		p.Separator()
		p.Info(fmt.Sprintf("[%s] %s changed", time.Now().Format("15:04:05"), id))
		checkSkill(ctx, p, v, f, config)
		return
	}

	logger.G(ctx).Debug("changed folder is not a watched skill")
}
