package cfg

type Cfg struct {
	// Storage configuration
	DataDir      string
	SettingsFile string
	ImportFile   string

	// Application configuration
	Port         string
	WorkerCount  int
	APIAccessKey string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
