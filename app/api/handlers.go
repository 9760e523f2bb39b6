package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/bookmark-comb/app/bookmarks"
	"github.com/lysyi3m/bookmark-comb/app/database"
	"github.com/lysyi3m/bookmark-comb/app/organizer"
	"github.com/lysyi3m/bookmark-comb/app/tasks"
)

func NewHandler(nodeRepo database.NodeRepository, settingsRepo database.SettingsRepository,
	org *organizer.Organizer, scheduler tasks.TaskSchedulerInterface) *Handler {
	return &Handler{
		nodeRepo:     nodeRepo,
		settingsRepo: settingsRepo,
		organizer:    org,
		scheduler:    scheduler,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if settings, err := h.settingsRepo.GetSettings(); err == nil {
		health["initialized"] = settings.IsInitialized
		health["processing"] = settings.IsProcessing
	}

	if nodes, err := h.nodeRepo.GetTree(); err == nil {
		bookmarks := 0
		folders := 0
		for i := range nodes {
			if nodes[i].IsFolder() {
				folders++
			} else {
				bookmarks++
			}
		}
		health["bookmarks"] = bookmarks
		health["folders"] = folders
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	nodes, err := h.nodeRepo.GetTree()
	if err != nil {
		slog.Error("Database error", "operation", "get_tree", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	tree := bookmarks.BuildTree(nodes)
	bookmarkCount := 0
	folderCount := 0
	for i := range nodes {
		if nodes[i].IsFolder() {
			folderCount++
		} else {
			bookmarkCount++
		}
	}

	var excludeTitles []string
	if settings, err := h.settingsRepo.GetSettings(); err == nil {
		excludeTitles = []string{settings.BackupFolder, settings.FailuresFolder}
	}

	stats := map[string]interface{}{
		"bookmarks":  bookmarkCount,
		"folders":    folderCount,
		"categories": len(tree.ExtractCategories(excludeTitles)),
	}

	if progress, err := h.settingsRepo.GetProgress(); err == nil {
		stats["last_run"] = progress
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetProgress(c *gin.Context) {
	progress, err := h.settingsRepo.GetProgress()
	if err != nil {
		slog.Error("Database error", "operation", "get_progress", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, progress)
}

// APIStartOrganize acquires the run slot and enqueues the bulk run. A 409
// is returned when a run is already in progress.
func (h *Handler) APIStartOrganize(c *gin.Context) {
	runCtx, err := h.organizer.Begin()
	if err != nil {
		if errors.Is(err, organizer.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "An organize run is already in progress"})
			return
		}
		slog.Error("Failed to start organize run", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start organize run"})
		return
	}

	task := tasks.NewOrganizeTask(h.organizer, runCtx)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing organize task", "error", err)
		h.organizer.Cancel()
		if releaseErr := h.settingsRepo.ReleaseRun(); releaseErr != nil {
			slog.Error("Failed to release run state", "error", releaseErr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue organize task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Organize run started",
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func (h *Handler) APICancelOrganize(c *gin.Context) {
	settings, err := h.settingsRepo.GetSettings()
	if err != nil {
		slog.Error("Database error", "operation", "get_settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !settings.IsProcessing {
		c.JSON(http.StatusConflict, gin.H{"error": "No organize run in progress"})
		return
	}

	h.organizer.Cancel()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Cancellation requested",
	})
}

func (h *Handler) APIGetSettings(c *gin.Context) {
	settings, err := h.settingsRepo.GetSettings()
	if err != nil {
		slog.Error("Database error", "operation", "get_settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// APIUpdateSettings replaces user-editable settings. Run-state flags are
// owned by the organizer and preserved across updates.
func (h *Handler) APIUpdateSettings(c *gin.Context) {
	current, err := h.settingsRepo.GetSettings()
	if err != nil {
		slog.Error("Database error", "operation", "get_settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if current.IsProcessing {
		c.JSON(http.StatusConflict, gin.H{"error": "Settings cannot be changed while a run is in progress"})
		return
	}

	updated := *current
	if err := c.ShouldBindJSON(&updated); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings payload", "details": err.Error()})
		return
	}
	updated.IsProcessing = current.IsProcessing
	updated.IsInitialized = current.IsInitialized

	if err := h.settingsRepo.SaveSettings(&updated); err != nil {
		slog.Error("Database error", "operation", "save_settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APISearchBookmarks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing q parameter"})
		return
	}

	nodes, err := h.nodeRepo.Search(query)
	if err != nil {
		slog.Error("Database error", "operation", "search", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	results := make([]map[string]interface{}, 0, len(nodes))
	for i := range nodes {
		results = append(results, map[string]interface{}{
			"id":     nodes[i].ID,
			"title":  nodes[i].Title,
			"url":    nodes[i].URL,
			"folder": nodes[i].IsFolder(),
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"results": results,
		"total":   len(results),
	})
}

// APIClassifyBookmark enqueues incremental classification for one bookmark.
func (h *Handler) APIClassifyBookmark(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing bookmark id parameter"})
		return
	}

	node, err := h.nodeRepo.GetNode(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_node", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if node == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bookmark not found"})
		return
	}
	if node.IsFolder() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Node is a folder, not a bookmark"})
		return
	}

	settings, err := h.settingsRepo.GetSettings()
	if err != nil {
		slog.Error("Database error", "operation", "get_settings", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !settings.IsInitialized {
		c.JSON(http.StatusConflict, gin.H{"error": "Run a full organize first to establish categories"})
		return
	}

	task := tasks.NewClassifyBookmarkTask(h.organizer, id)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing classify task", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue classify task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Classification task enqueued",
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}
