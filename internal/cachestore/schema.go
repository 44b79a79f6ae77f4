package cachestore

// SQL schemas for the durable tables.

// SourceCacheSchema holds one serialized snapshot per source key. The
// pool builder overwrites its row on every save; there is no history.
const SourceCacheSchema = `
CREATE TABLE IF NOT EXISTS source_cache (
	source_key TEXT PRIMARY KEY NOT NULL,
	payload TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_source_cache_updated_at ON source_cache(updated_at);
`

// SettingsSchema holds user-supplied settings such as the TMDB token.
const SettingsSchema = `
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY NOT NULL,
	value TEXT NOT NULL
);
`

// AllSchemas lists every schema applied on Open.
var AllSchemas = []string{
	SourceCacheSchema,
	SettingsSchema,
}
