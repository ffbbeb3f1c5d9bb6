package main

import (
	"fmt"
	"time"

	"github.com/franz/yarkie/internal/discogs"
	"github.com/franz/yarkie/internal/enrich"
	"github.com/franz/yarkie/internal/report"
	"github.com/franz/yarkie/internal/score"
	"github.com/franz/yarkie/internal/store"
	"github.com/franz/yarkie/internal/util"
	"github.com/spf13/viper"
)

func setConfigDefaults() {
	viper.SetDefault("discogs.user_agent", discogs.UserAgent)
	viper.SetDefault("discogs.base_url", discogs.BaseURL)
	viper.SetDefault("discogs.search_type", discogs.SearchTypeRelease)
	viper.SetDefault("discogs.rate_limit", discogs.RateLimit)
	viper.SetDefault("rank.year_window", score.DefaultPolicy().YearWindow)
	viper.SetDefault("enrich.max_requery", enrich.DefaultMaxRequery)
}

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (YARKIE_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// GetConfigDuration retrieves a duration config value ("1s", "500ms")
func GetConfigDuration(key string, defaultValue time.Duration) time.Duration {
	val := viper.GetDuration(key)
	if val <= 0 {
		return defaultValue
	}
	return val
}

// openStore opens the catalogue database named by --db
func openStore() (*store.Store, error) {
	dbPath := GetConfigString("db", "yarkie.db")
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// openEventLogger opens the JSONL audit log, falling back to a null logger
// when the artifacts directory is unusable
func openEventLogger() *report.EventLogger {
	level := report.LevelInfo
	if viper.GetBool("verbose") {
		level = report.LevelDebug
	}
	logger, err := report.NewEventLogger(GetConfigString("artifacts", "artifacts"), level)
	if err != nil {
		util.WarnLog("Event logging disabled: %v", err)
		return report.NullLogger()
	}
	util.DebugLog("Writing events to %s", logger.Path())
	return logger
}

// newDiscogsClient builds the catalog client from discogs.* settings
func newDiscogsClient() (*discogs.Client, error) {
	token := viper.GetString("discogs.token")
	if token == "" {
		return nil, fmt.Errorf("%w: discogs.token is not set (use YARKIE_DISCOGS_TOKEN or the config file)", util.ErrInvalidConfig)
	}
	return discogs.NewClient(discogs.Options{
		Token:      token,
		UserAgent:  GetConfigString("discogs.user_agent", discogs.UserAgent),
		BaseURL:    GetConfigString("discogs.base_url", discogs.BaseURL),
		SearchType: GetConfigString("discogs.search_type", discogs.SearchTypeRelease),
		RateLimit:  GetConfigDuration("discogs.rate_limit", discogs.RateLimit),
	})
}

// rankPolicy reads rank.* settings
func rankPolicy() score.Policy {
	return score.Policy{
		YearWindow: GetConfigInt("rank.year_window", score.DefaultPolicy().YearWindow),
	}
}
