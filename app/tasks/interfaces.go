package tasks

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application and the API server to manage background task
// processing. This interface provides task queue management and worker pool
// control.
// Example usage:
//
//	scheduler := NewScheduler(syncer)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewSyncLibraryTask(syncer))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
