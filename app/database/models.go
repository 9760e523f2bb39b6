package database

// Node represents a single entry in the bookmark tree. A node with a URL is
// a bookmark and must be a leaf; a node with an empty URL is a folder.
type Node struct {
	ID       string
	ParentID *string // nil = top level
	Title    string
	URL      string
	Position int
}

// IsFolder reports whether the node can contain children.
func (n *Node) IsFolder() bool {
	return n.URL == ""
}

// Settings is the user-facing configuration record persisted in the
// key-value store. UI layers read and write it as a whole.
type Settings struct {
	ContentProvider string `json:"contentProvider"` // "direct" or "jina"
	JinaAPIKey      string `json:"jinaApiKey"`

	LLMProvider     string `json:"llmProvider"` // "anthropic" or "openai"
	AnthropicAPIKey string `json:"anthropicApiKey"`
	OpenAIAPIKey    string `json:"openaiApiKey"`
	OpenAIBaseURL   string `json:"openaiBaseUrl"`
	Model           string `json:"model"`

	SampleRate    float64 `json:"sampleRate"`
	MaxCategories int     `json:"maxCategories"`
	MaxDepth      int     `json:"maxDepth"`
	Concurrency   int     `json:"concurrency"`
	BatchSize     int     `json:"batchSize"`
	BatchDelayMs  int     `json:"batchDelayMs"`

	ExcludedFolders      []string `json:"excludedFolders"`
	CustomRules          string   `json:"customRules"`
	PredefinedCategories string   `json:"predefinedCategories"`
	Language             string   `json:"language"`

	RootFolder       string `json:"rootFolder"`
	BackupFolder     string `json:"backupFolder"`
	FailuresFolder   string `json:"failuresFolder"`
	WatchFolder      string `json:"watchFolder"`
	WatchIntervalSec int    `json:"watchIntervalSec"`

	IsInitialized bool `json:"isInitialized"`
	IsProcessing  bool `json:"isProcessing"`
}

// Progress is the run progress snapshot persisted after every stage and
// window transition so UI surfaces can observe it across reloads.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message"`
	Stage   string `json:"stage"`
}

// DefaultSettings returns the settings applied when no record exists yet.
func DefaultSettings() *Settings {
	return &Settings{
		ContentProvider:  "direct",
		LLMProvider:      "anthropic",
		SampleRate:       0.1,
		MaxCategories:    15,
		MaxDepth:         2,
		Concurrency:      10,
		BatchSize:        5,
		BatchDelayMs:     500,
		ExcludedFolders:  []string{},
		Language:         "en",
		RootFolder:       "Bookmarks Bar",
		BackupFolder:     "Backup",
		FailuresFolder:   "Failures",
		WatchFolder:      "Inbox",
		WatchIntervalSec: 60,
	}
}
