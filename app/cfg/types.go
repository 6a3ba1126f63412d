package cfg

type Cfg struct {
	// Persistence configuration
	StorageBackend string
	DataDir        string
	DBPath         string

	// Source configuration
	BooksDir        string
	GoodreadsUserID string

	// Application configuration
	Port         string
	WorkerCount  int
	SyncInterval int
	Incremental  bool
	APIAccessKey string
	YearlyGoal   int

	// Enrichment and insights
	EnableEnrichment bool
	GeminiAPIKey     string
	GeminiModel      string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
