package tasks

import (
	"context"

	"github.com/lysyi3m/bookmark-comb/app/organizer"
)

// OrganizeTask executes one full bulk classification run. The run context
// is created by Organizer.Begin before the task is enqueued, so the run
// slot is held from the moment the API accepts the request.
type OrganizeTask struct {
	Task
	organizer *organizer.Organizer
	runCtx    context.Context
}

func NewOrganizeTask(org *organizer.Organizer, runCtx context.Context) *OrganizeTask {
	task := NewTask(TaskTypeOrganize, "bulk")
	// A run is not idempotent from the outside: the processing flag is
	// already released on failure, so a retry would need a fresh Begin.
	task.MaxRetries = 0

	return &OrganizeTask{
		Task:      task,
		organizer: org,
		runCtx:    runCtx,
	}
}

func (t *OrganizeTask) Execute(ctx context.Context) error {
	// Scheduler shutdown cancels the run the same way a user abort does.
	stop := context.AfterFunc(ctx, t.organizer.Cancel)
	defer stop()

	return t.organizer.Organize(t.runCtx)
}
