package database

// NodeRepository defines the bookmark store operations consumed by the
// organizer. All tree mutations go through this interface; no caller
// touches the nodes table directly.
type NodeRepository interface {
	GetTree() ([]Node, error)
	GetChildren(parentID *string) ([]Node, error)
	GetNode(id string) (*Node, error)

	CreateNode(title string, parentID *string, url string) (string, error)
	MoveNode(id string, newParentID *string, position int) error
	RemoveSubtree(id string) error

	Search(query string) ([]Node, error)
}

// SettingsRepository defines the key-value configuration store operations.
// Settings and progress are stored as whole records; AcquireRun flips the
// isProcessing flag atomically so at most one run is ever active.
type SettingsRepository interface {
	GetSettings() (*Settings, error)
	SaveSettings(settings *Settings) error

	GetProgress() (*Progress, error)
	SaveProgress(progress *Progress) error

	AcquireRun() (bool, error)
	ReleaseRun() error
	SetInitialized(initialized bool) error
}
