package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lysyi3m/bookmark-comb/app/bookmarks"
	"github.com/lysyi3m/bookmark-comb/app/content"
	"github.com/lysyi3m/bookmark-comb/app/database"
	"github.com/lysyi3m/bookmark-comb/app/llm"
)

// Stage names recorded in the progress snapshot.
const (
	StageIdle         = "idle"
	StageBackup       = "backup"
	StageSampling     = "sampling"
	StageCategorizing = "categorizing"
	StageClassifying  = "classifying"
	StageComplete     = "complete"
	StageAborted      = "aborted"
	StageFailed       = "failed"
)

const DefaultWindowSize = 10

// ErrAlreadyRunning is returned when a run is requested while another run
// holds the processing flag.
var ErrAlreadyRunning = errors.New("an organize run is already in progress")

// errCancelled marks a user-initiated stop. It is translated into a clean
// termination at the run boundary, never surfaced to the caller.
var errCancelled = errors.New("run cancelled")

type FetcherFactory func(settings *database.Settings) (content.Fetcher, error)
type ClassifierFactory func(settings *database.Settings) (llm.Classifier, error)

// Organizer drives bulk and incremental bookmark classification. Provider
// clients are constructed per run from the current settings.
type Organizer struct {
	nodes         database.NodeRepository
	settings      database.SettingsRepository
	newFetcher    FetcherFactory
	newClassifier ClassifierFactory

	mu        sync.Mutex
	cancelRun context.CancelFunc
}

func New(nodes database.NodeRepository, settings database.SettingsRepository) *Organizer {
	return NewWithProviders(nodes, settings, content.NewFetcher, llm.NewClassifier)
}

func NewWithProviders(nodes database.NodeRepository, settings database.SettingsRepository,
	newFetcher FetcherFactory, newClassifier ClassifierFactory) *Organizer {
	return &Organizer{
		nodes:         nodes,
		settings:      settings,
		newFetcher:    newFetcher,
		newClassifier: newClassifier,
	}
}

// Begin acquires the single-run slot and returns the run's context.
// Exactly one Organize call must follow a successful Begin.
func (o *Organizer) Begin() (context.Context, error) {
	acquired, err := o.settings.AcquireRun()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run state: %w", err)
	}
	if !acquired {
		return nil, ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.cancelRun = cancel
	o.mu.Unlock()

	return ctx, nil
}

// Cancel signals the active run to stop scheduling new work. No-op when no
// run is active. In-flight provider calls are not interrupted; their
// results are discarded.
func (o *Organizer) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancelRun != nil {
		o.cancelRun()
	}
}

// RecoverState resets run state left behind by a process that died
// mid-run. The abandoned run is marked failed, never resumed.
func (o *Organizer) RecoverState() error {
	settings, err := o.settings.GetSettings()
	if err != nil {
		return err
	}
	if !settings.IsProcessing {
		return nil
	}

	slog.Warn("Previous run did not finish, resetting state")
	if err := o.settings.ReleaseRun(); err != nil {
		return err
	}
	return o.settings.SaveProgress(&database.Progress{
		Stage:   StageFailed,
		Message: "Previous run was interrupted",
	})
}

type runState struct {
	settings   *database.Settings
	fetcher    content.Fetcher
	classifier llm.Classifier
	matcher    *RuleMatcher
	treeOps    *TreeOps

	rootID     string
	backupID   string
	failuresID string
	protected  map[string]bool

	categories []string

	total       int
	classified  int
	quarantined int
}

// Organize executes the full bulk run. The caller must hold the run slot
// via Begin. Cleanup is guaranteed on every exit path: the processing flag
// is reset and progress is finalized for success, cancellation, and error
// alike. Cancellation returns nil; it is a clean stop, not a failure.
func (o *Organizer) Organize(ctx context.Context) (err error) {
	st := &runState{protected: make(map[string]bool)}

	defer func() {
		o.mu.Lock()
		if o.cancelRun != nil {
			o.cancelRun()
			o.cancelRun = nil
		}
		o.mu.Unlock()

		if releaseErr := o.settings.ReleaseRun(); releaseErr != nil {
			slog.Error("Failed to reset run state", "error", releaseErr)
		}

		switch {
		case errors.Is(err, errCancelled) || errors.Is(err, context.Canceled):
			slog.Info("Organize run cancelled", "classified", st.classified, "quarantined", st.quarantined)
			o.saveProgress(&database.Progress{
				Current: st.classified + st.quarantined,
				Total:   st.total,
				Stage:   StageAborted,
				Message: "Organization cancelled",
			})
			err = nil
		case err != nil:
			slog.Error("Organize run failed", "error", err)
			o.saveProgress(&database.Progress{
				Current: st.classified + st.quarantined,
				Total:   st.total,
				Stage:   StageFailed,
				Message: "Organization failed: " + err.Error(),
			})
		default:
			message := fmt.Sprintf("All %d bookmarks organized", st.classified)
			if st.quarantined > 0 {
				message = fmt.Sprintf("%d bookmarks organized, %d quarantined", st.classified, st.quarantined)
			}
			slog.Info("Organize run complete", "classified", st.classified, "quarantined", st.quarantined)
			o.saveProgress(&database.Progress{
				Current: st.classified + st.quarantined,
				Total:   st.total,
				Stage:   StageComplete,
				Message: message,
			})
		}
	}()

	return o.run(ctx, st)
}

func (o *Organizer) run(ctx context.Context, st *runState) error {
	settings, err := o.settings.GetSettings()
	if err != nil {
		return err
	}
	st.settings = settings

	st.fetcher, err = o.newFetcher(settings)
	if err != nil {
		return err
	}
	st.classifier, err = o.newClassifier(settings)
	if err != nil {
		return err
	}
	st.matcher = NewRuleMatcher(settings.CustomRules)
	st.treeOps = NewTreeOps(o.nodes)

	// Stage: backup. Failure here is fatal; no reorganization without a
	// safety copy.
	if err := checkpoint(ctx); err != nil {
		return err
	}
	o.reportStage(StageBackup, "Backing up bookmarks")
	st.backupID, err = st.treeOps.Backup(ctx, settings.BackupFolder, []string{settings.FailuresFolder})
	if err != nil {
		if ctx.Err() != nil {
			return errCancelled
		}
		return fmt.Errorf("backup failed: %w", err)
	}
	st.protected[st.backupID] = true

	st.rootID, err = st.treeOps.EnsureTopLevelFolder(settings.RootFolder)
	if err != nil {
		return err
	}
	st.protected[st.rootID] = true

	// Stage: sampling
	if err := checkpoint(ctx); err != nil {
		return err
	}
	o.reportStage(StageSampling, "Collecting bookmarks")

	nodes, err := o.nodes.GetTree()
	if err != nil {
		return err
	}
	tree := bookmarks.BuildTree(nodes)

	exclude := append([]string{settings.BackupFolder, settings.FailuresFolder}, settings.ExcludedFolders...)
	allBookmarks := tree.Bookmarks(exclude)
	if len(allBookmarks) == 0 {
		return fmt.Errorf("no bookmarks found to organize")
	}
	st.total = len(allBookmarks)

	st.categories, err = o.buildCategories(ctx, st, allBookmarks)
	if err != nil {
		return err
	}

	// Stage: categorizing. All category folders exist before any item
	// classification starts.
	if err := checkpoint(ctx); err != nil {
		return err
	}
	o.reportStage(StageCategorizing, fmt.Sprintf("Creating %d category folders", len(st.categories)))
	for _, category := range st.categories {
		chain, err := ResolveFolderChain(o.nodes, st.rootID, category)
		if err != nil {
			return fmt.Errorf("failed to create category folders: %w", err)
		}
		for _, id := range chain {
			st.protected[id] = true
		}
	}

	// Stage: classifying
	if err := o.classifyAll(ctx, st, allBookmarks); err != nil {
		return err
	}

	// Stage: complete
	if err := checkpoint(ctx); err != nil {
		return err
	}
	o.reportStage(StageComplete, "Cleaning up")
	st.treeOps.PruneEmptyFolders(st.protected)

	if _, err := st.treeOps.EnsureTopLevelFolder(settings.WatchFolder); err != nil {
		return err
	}
	if err := o.settings.SetInitialized(true); err != nil {
		return err
	}

	return nil
}

// buildCategories returns the taxonomy for the run. A predefined category
// list bypasses sampling and the model entirely.
func (o *Organizer) buildCategories(ctx context.Context, st *runState, allBookmarks []*database.Node) ([]string, error) {
	settings := st.settings

	if strings.TrimSpace(settings.PredefinedCategories) != "" {
		categories := ParsePredefinedCategories(settings.PredefinedCategories)
		if len(categories) == 0 {
			return nil, fmt.Errorf("predefined category list is empty after parsing")
		}
		slog.Info("Using predefined categories", "count", len(categories))
		return categories, nil
	}

	sample := SampleBookmarks(allBookmarks, settings.SampleRate)
	o.reportStage(StageSampling, fmt.Sprintf("Fetching content for %d sampled bookmarks", len(sample)))

	batcher := NewContentBatcher(st.fetcher, settings.BatchSize, settings.BatchDelayMs)
	pages, err := batcher.Run(ctx, sample)
	if err != nil {
		return nil, errCancelled
	}

	var samples []llm.Sample
	for i, page := range pages {
		if page == nil {
			continue
		}
		samples = append(samples, llm.Sample{
			Title:   sample[i].Title,
			URL:     sample[i].URL,
			Content: page.Content,
		})
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("could not fetch content for any sampled bookmark")
	}

	if err := checkpoint(ctx); err != nil {
		return nil, err
	}
	o.reportStage(StageCategorizing, "Deriving categories")

	return NewTaxonomyBuilder(st.classifier).Run(ctx, samples, settings.MaxCategories, settings.MaxDepth, settings.Language)
}

// classifyAll processes bookmarks in fixed-size concurrency windows.
// Within a window, classification requests run concurrently; tree mutations
// are issued sequentially after the window settles. A per-item failure
// routes the bookmark to the quarantine folder and never aborts the run.
func (o *Organizer) classifyAll(ctx context.Context, st *runState, items []*database.Node) error {
	settings := st.settings

	classifier := NewItemClassifier(o.nodes, st.fetcher, st.classifier, st.matcher, settings.MaxDepth, settings.Language)

	windowSize := settings.Concurrency
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	existing := append([]string(nil), st.categories...)
	known := make(map[string]bool, len(existing))
	for _, path := range existing {
		known[path] = true
	}

	for start := 0; start < len(items); start += windowSize {
		if err := checkpoint(ctx); err != nil {
			return err
		}

		end := start + windowSize
		if end > len(items) {
			end = len(items)
		}
		window := items[start:end]

		results := make([]*llm.Result, len(window))
		failures := make([]error, len(window))

		var group errgroup.Group
		for i := range window {
			group.Go(func() error {
				results[i], failures[i] = classifier.Classify(ctx, window[i], existing)
				return nil
			})
		}
		_ = group.Wait()

		// Abort takes precedence over settled results: once signaled, the
		// window's outcomes are discarded, not written to the tree.
		if err := checkpoint(ctx); err != nil {
			return err
		}

		for i := range window {
			if err := checkpoint(ctx); err != nil {
				return err
			}

			if failures[i] != nil {
				slog.Warn("Classification failed, quarantining", "url", window[i].URL, "error", failures[i])
				o.quarantine(st, window[i])
				continue
			}

			folderID, err := ResolveFolder(o.nodes, st.rootID, results[i].Path)
			if err == nil {
				err = o.nodes.MoveNode(window[i].ID, &folderID, -1)
			}
			if err != nil {
				slog.Warn("Failed to file bookmark, quarantining", "url", window[i].URL, "error", err)
				o.quarantine(st, window[i])
				continue
			}

			st.classified++
			if !known[results[i].Path] {
				known[results[i].Path] = true
				existing = append(existing, results[i].Path)
			}
		}

		o.saveProgress(&database.Progress{
			Current: st.classified + st.quarantined,
			Total:   st.total,
			Stage:   StageClassifying,
			Message: "Classified " + window[len(window)-1].Title,
		})
	}

	return nil
}

// quarantine moves a failed bookmark into the failures folder, creating
// the folder on first use. Quarantine errors are logged, never escalated.
func (o *Organizer) quarantine(st *runState, bookmark *database.Node) {
	st.quarantined++

	if st.failuresID == "" {
		id, err := st.treeOps.EnsureTopLevelFolder(st.settings.FailuresFolder)
		if err != nil {
			slog.Error("Failed to create failures folder", "error", err)
			return
		}
		st.failuresID = id
		st.protected[id] = true
	}

	if err := o.nodes.MoveNode(bookmark.ID, &st.failuresID, -1); err != nil {
		slog.Error("Failed to quarantine bookmark", "id", bookmark.ID, "error", err)
	}
}

// ClassifyOne classifies a single bookmark against the categories present
// in the live tree and moves it to the resulting folder. Used for
// incremental classification after initialization.
func (o *Organizer) ClassifyOne(ctx context.Context, bookmarkID string) (*Classification, error) {
	bookmark, err := o.nodes.GetNode(bookmarkID)
	if err != nil {
		return nil, err
	}
	if bookmark == nil {
		return nil, fmt.Errorf("bookmark not found: %s", bookmarkID)
	}
	if bookmark.IsFolder() {
		return nil, fmt.Errorf("node %s is a folder, not a bookmark", bookmarkID)
	}

	settings, err := o.settings.GetSettings()
	if err != nil {
		return nil, err
	}

	fetcher, err := o.newFetcher(settings)
	if err != nil {
		return nil, err
	}
	classifier, err := o.newClassifier(settings)
	if err != nil {
		return nil, err
	}

	treeOps := NewTreeOps(o.nodes)
	rootID, err := treeOps.EnsureTopLevelFolder(settings.RootFolder)
	if err != nil {
		return nil, err
	}
	existing, err := treeOps.ExtractCategories([]string{settings.BackupFolder, settings.FailuresFolder})
	if err != nil {
		return nil, err
	}

	item := NewItemClassifier(o.nodes, fetcher, classifier, NewRuleMatcher(settings.CustomRules), settings.MaxDepth, settings.Language)
	result, err := item.Run(ctx, bookmark, existing, rootID)
	if err != nil {
		return nil, err
	}

	if err := o.nodes.MoveNode(bookmark.ID, &result.FolderID, -1); err != nil {
		return nil, err
	}

	slog.Info("Bookmark classified", "url", bookmark.URL, "category", result.Path)
	return result, nil
}

func checkpoint(ctx context.Context) error {
	if ctx.Err() != nil {
		return errCancelled
	}
	return nil
}

func (o *Organizer) reportStage(stage, message string) {
	o.saveProgress(&database.Progress{Stage: stage, Message: message})
}

func (o *Organizer) saveProgress(progress *database.Progress) {
	if err := o.settings.SaveProgress(progress); err != nil {
		slog.Error("Failed to save progress", "stage", progress.Stage, "error", err)
	}
}
