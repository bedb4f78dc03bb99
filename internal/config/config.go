// Package config loads runtime settings for the uplink CLI: defaults first,
// then a JSON file, then command-line flags. Later sources win.
package config

import "time"

// Config holds runtime settings for the uplink CLI.
//
// Units: ChunkPause and PollInterval are time.Durations; UploadExpiry is in
// minutes because that is what the authorization endpoint takes.
type Config struct {
	// Endpoint is the base URL of the drone tasking backend.
	Endpoint string

	// JournalPath is the local SQLite batch journal.
	JournalPath string

	// ChunkSize is the uploader's concurrency width.
	ChunkSize int

	// ChunkPause is the pacing delay between chunks.
	ChunkPause time.Duration

	// UploadRetries is the number of extra attempts per file within a chunk.
	UploadRetries int

	// UploadExpiry is the requested pre-signed URL lifetime, in minutes.
	UploadExpiry int

	// PollInterval is the classification poll cadence.
	PollInterval time.Duration

	// Direct-to-bucket mode: sign upload URLs locally against this bucket
	// instead of asking the backend. Enabled by the upload command's
	// -direct flag; these settings only matter then.
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Endpoint = "http://127.0.0.1:8000"
	c.JournalPath = "uplink.db"
	c.ChunkSize = 4
	c.ChunkPause = 400 * time.Millisecond
	c.UploadRetries = 2
	c.UploadExpiry = 5
	c.PollInterval = 2 * time.Second
	c.S3Region = "us-east-1"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
