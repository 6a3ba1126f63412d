package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akislov/book-comb/app/analytics"
	"github.com/akislov/book-comb/app/book"
	"github.com/akislov/book-comb/app/state"
	"github.com/akislov/book-comb/app/storage"
	"github.com/akislov/book-comb/app/tasks"
)

func NewHandler(libraryStore *state.LibraryStore, syncState *state.SyncStateStore,
	changeLog *state.ChangeLog, store storage.Storage, scheduler tasks.TaskSchedulerInterface,
	syncer *tasks.Syncer, yearlyGoal int) *Handler {
	return &Handler{
		libraryStore: libraryStore,
		syncState:    syncState,
		changeLog:    changeLog,
		storage:      store,
		scheduler:    scheduler,
		syncer:       syncer,
		yearlyGoal:   yearlyGoal,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"books":     len(h.libraryStore.Load()),
		"sources":   len(h.syncState.All()),
	}

	if lastCheck, ok := h.changeLog.LastCheck(); ok {
		health["last_sync"] = lastCheck.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetBooks(c *gin.Context) {
	library := h.libraryStore.Load()

	if source := c.Query("source"); source != "" {
		library = library.BySource(book.Source(source))
	}

	if status := c.Query("status"); status != "" {
		filtered := make(book.Library, 0, len(library))
		for _, b := range library {
			if string(b.Status) == status {
				filtered = append(filtered, b)
			}
		}
		library = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(library),
		"books": library,
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	library := h.libraryStore.Load()
	c.JSON(http.StatusOK, analytics.Compute(library, h.yearlyGoal))
}

func (h *Handler) GetChanges(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	entries := h.changeLog.Recent(limit)

	response := gin.H{
		"count":     len(entries),
		"new_books": entries,
	}
	if lastCheck, ok := h.changeLog.LastCheck(); ok {
		response["last_check"] = lastCheck.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIGetSyncState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sources": h.syncState.All(),
	})
}

func (h *Handler) APISync(c *gin.Context) {
	task := tasks.NewSyncLibraryTask(h.syncer)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue sync task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sync queue is full, try again later"})
		return
	}

	slog.Info("Sync requested over API", "task_id", task.GetID())

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "queued",
		"task_id": task.GetID(),
	})
}

func (h *Handler) APIRegenerateInsights(c *gin.Context) {
	task := tasks.NewGenerateInsightsTask(h.syncer)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue insights task", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "task queue is full, try again later"})
		return
	}

	slog.Info("Insights regeneration requested over API", "task_id", task.GetID())

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "queued",
		"task_id": task.GetID(),
	})
}

func (h *Handler) APIGetInsights(c *gin.Context) {
	data, err := h.storage.Read(storage.DocInsights)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no insights generated yet"})
			return
		}
		slog.Error("Failed to read insights", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}
