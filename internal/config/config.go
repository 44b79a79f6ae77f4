package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// TMDBAPIKey is the API key for TheMovieDB, used for both the list
	// collectors and the enrichment lookups. The settings store can
	// override it with a user-supplied token at build time.
	TMDBAPIKey string
	// ListenAddr is the HTTP API listen address
	ListenAddr string
	// UserAgent is sent to external catalogs that require identification (bgm.tv)
	UserAgent string
)

// InitConfig initializes the global configuration
func InitConfig() {
	viper.SetDefault("listen", ":8080")
	viper.SetDefault("useragent", "animesub/1.0 (https://github.com/hhlyyng/animesub)")

	TMDBAPIKey = viper.GetString("TMDBAPIKey")
	ListenAddr = viper.GetString("listen")
	UserAgent = viper.GetString("useragent")
}

// SetTMDBAPIKey sets the TMDB API key
func SetTMDBAPIKey(key string) {
	TMDBAPIKey = key
}
