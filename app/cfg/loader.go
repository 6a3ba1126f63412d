package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Persistence configuration
	StorageBackend string `long:"storage" env:"STORAGE_BACKEND" default:"file" choice:"file" choice:"sqlite" choice:"memory" description:"Document storage backend"`
	DataDir        string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory for persisted JSON documents (file backend)"`
	DBPath         string `long:"db-path" env:"DB_PATH" default:"./data/bookcomb.db" description:"SQLite database path (sqlite backend)"`

	// Source configuration
	BooksDir        string `long:"books-dir" env:"BOOKS_DIR" default:"./books" description:"Directory containing manual markdown book entries"`
	GoodreadsUserID string `long:"goodreads-user-id" env:"GOODREADS_USER_ID" description:"Goodreads user ID for RSS/scraping collection (optional)"`

	// Application configuration
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for source collection"`
	SyncInterval int    `long:"sync-interval" env:"SYNC_INTERVAL" default:"3600" description:"Aggregation interval in seconds"`
	Incremental  bool   `long:"incremental" env:"INCREMENTAL_SYNC" description:"Filter fetched records against the stored per-source watermark"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	YearlyGoal   int    `long:"yearly-goal" env:"YEARLY_GOAL" default:"24" description:"Reading goal in books per year"`

	// Enrichment and insights
	EnableEnrichment bool   `long:"enrichment" env:"ENABLE_METADATA_ENRICHMENT" description:"Enrich books with Open Library and Google Books metadata"`
	GeminiAPIKey     string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key for reading insights (optional)"`
	GeminiModel      string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-1.5-flash" description:"Gemini model for reading insights"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"book-comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	// .env files are optional; flags and real environment variables win.
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		StorageBackend:   raw.StorageBackend,
		DataDir:          raw.DataDir,
		DBPath:           raw.DBPath,
		BooksDir:         raw.BooksDir,
		GoodreadsUserID:  raw.GoodreadsUserID,
		Port:             raw.Port,
		WorkerCount:      raw.WorkerCount,
		SyncInterval:     raw.SyncInterval,
		Incremental:      raw.Incremental,
		APIAccessKey:     raw.APIAccessKey,
		YearlyGoal:       raw.YearlyGoal,
		EnableEnrichment: raw.EnableEnrichment,
		GeminiAPIKey:     raw.GeminiAPIKey,
		GeminiModel:      raw.GeminiModel,
		UserAgent:        raw.UserAgent,
		Timezone:         raw.Timezone,
		Debug:            raw.Debug,
		Version:          GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
