package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/bookmark-comb/app/cfg"
	"github.com/lysyi3m/bookmark-comb/app/database"
	"github.com/lysyi3m/bookmark-comb/app/organizer"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const defaultWatchInterval = 60 * time.Second

// Scheduler runs a fixed worker pool over a task queue and polls the watch
// folder for bookmarks awaiting incremental classification.
type Scheduler struct {
	organizer    *organizer.Organizer
	settingsRepo database.SettingsRepository
	nodeRepo     database.NodeRepository
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewScheduler(org *organizer.Organizer, settingsRepo database.SettingsRepository,
	nodeRepo database.NodeRepository) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		organizer:    org,
		settingsRepo: settingsRepo,
		nodeRepo:     nodeRepo,
		workerCount:  cfg.Get().WorkerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 300),
		inFlight:     make(map[string]bool),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.watchInterval())
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueWatchTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) watchInterval() time.Duration {
	settings, err := s.settingsRepo.GetSettings()
	if err != nil || settings.WatchIntervalSec <= 0 {
		return defaultWatchInterval
	}
	return time.Duration(settings.WatchIntervalSec) * time.Second
}

// enqueueWatchTasks schedules a classification task for each bookmark
// sitting in the watch folder. Inactive until the first bulk run has
// completed, and paused while a bulk run is in progress.
func (s *Scheduler) enqueueWatchTasks() {
	settings, err := s.settingsRepo.GetSettings()
	if err != nil {
		slog.Warn("Failed to load settings for watch poll", "error", err)
		return
	}
	if !settings.IsInitialized || settings.IsProcessing {
		return
	}

	roots, err := s.nodeRepo.GetChildren(nil)
	if err != nil {
		slog.Warn("Failed to list top-level folders for watch poll", "error", err)
		return
	}

	watchID := ""
	for i := range roots {
		if roots[i].IsFolder() && roots[i].Title == settings.WatchFolder {
			watchID = roots[i].ID
			break
		}
	}
	if watchID == "" {
		slog.Debug("Watch folder not found", "folder", settings.WatchFolder)
		return
	}

	children, err := s.nodeRepo.GetChildren(&watchID)
	if err != nil {
		slog.Warn("Failed to list watch folder contents", "error", err)
		return
	}

	for i := range children {
		if children[i].IsFolder() {
			continue
		}

		s.mu.Lock()
		if s.inFlight[children[i].ID] {
			s.mu.Unlock()
			continue
		}
		s.inFlight[children[i].ID] = true
		s.mu.Unlock()

		task := NewClassifyBookmarkTask(s.organizer, children[i].ID)
		if err := s.EnqueueTask(task); err != nil {
			slog.Warn("Failed to enqueue ClassifyBookmarkTask", "bookmark_id", children[i].ID, "error", err)
			s.clearInFlight(children[i].ID)
		}
	}
}

func (s *Scheduler) clearInFlight(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 30*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err == nil {
		if task.GetType() == TaskTypeClassifyBookmark {
			s.clearInFlight(task.GetSubject())
		}
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

	if task.CanRetry() {
		task.IncrementRetryCount()
		retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
		if retryDelay > 30*time.Second {
			retryDelay = 30 * time.Second
		}

		slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

		go func() {
			time.Sleep(retryDelay)
			select {
			case <-s.ctx.Done():
				slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
				return
			default:
				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				}
			}
		}()
		return
	}

	slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
	if task.GetType() == TaskTypeClassifyBookmark {
		s.clearInFlight(task.GetSubject())
	}
}
