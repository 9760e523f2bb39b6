package tasks

// TaskSchedulerInterface defines the interface for background task
// scheduling. Used by the main application and the HTTP API to run
// organize and classification work off the request path.
// Example usage:
//
//	scheduler := NewScheduler(organizer, settingsRepo, nodeRepo)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewOrganizeTask(organizer, runCtx))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
