package api

import (
	"github.com/lysyi3m/bookmark-comb/app/database"
	"github.com/lysyi3m/bookmark-comb/app/organizer"
	"github.com/lysyi3m/bookmark-comb/app/tasks"
)

type Handler struct {
	nodeRepo     database.NodeRepository
	settingsRepo database.SettingsRepository
	organizer    *organizer.Organizer
	scheduler    tasks.TaskSchedulerInterface
}
