package api

import (
	"github.com/akislov/book-comb/app/state"
	"github.com/akislov/book-comb/app/storage"
	"github.com/akislov/book-comb/app/tasks"
)

type Handler struct {
	libraryStore *state.LibraryStore
	syncState    *state.SyncStateStore
	changeLog    *state.ChangeLog
	storage      storage.Storage
	scheduler    tasks.TaskSchedulerInterface
	syncer       *tasks.Syncer
	yearlyGoal   int
}
