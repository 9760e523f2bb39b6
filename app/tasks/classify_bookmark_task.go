package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/bookmark-comb/app/organizer"
)

// ClassifyBookmarkTask classifies a single bookmark against the categories
// already present in the tree and files it accordingly.
type ClassifyBookmarkTask struct {
	Task
	organizer *organizer.Organizer
}

func NewClassifyBookmarkTask(org *organizer.Organizer, bookmarkID string) *ClassifyBookmarkTask {
	return &ClassifyBookmarkTask{
		Task:      NewTask(TaskTypeClassifyBookmark, bookmarkID),
		organizer: org,
	}
}

func (t *ClassifyBookmarkTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.organizer.ClassifyOne(ctx, t.Subject)
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "ClassifyBookmark",
		"bookmark_id", t.Subject,
		"duration", t.GetDuration(),
		"category", result.Path)

	return nil
}
