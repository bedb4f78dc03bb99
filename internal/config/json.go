package config

import (
	"encoding/json"
	"os"

	"github.com/aerialops/uplink/internal/flagx"
	"github.com/aerialops/uplink/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like
// "400ms" or as integer nanoseconds. After parsing, values are copied into
// the runtime Config.
type JsonConfig struct {
	Endpoint      string         `json:"endpoint"`
	JournalPath   string         `json:"journal_path"`
	ChunkSize     int            `json:"chunk_size"`
	ChunkPause    timex.Duration `json:"chunk_pause"`
	UploadRetries int            `json:"upload_retries"`
	UploadExpiry  int            `json:"upload_expiry"`
	PollInterval  timex.Duration `json:"poll_interval"`
	S3Endpoint    string         `json:"s3_endpoint"`
	S3Region      string         `json:"s3_region"`
	S3Bucket      string         `json:"s3_bucket"`
	S3AccessKey   string         `json:"s3_access_key"`
	S3SecretKey   string         `json:"s3_secret_key"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c/-config flags; when absent, nothing is loaded.
// Only fields present in the JSON override the current values.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Endpoint != "" {
		cfg.Endpoint = jc.Endpoint
	}
	if jc.JournalPath != "" {
		cfg.JournalPath = jc.JournalPath
	}
	if jc.ChunkSize > 0 {
		cfg.ChunkSize = jc.ChunkSize
	}
	if jc.ChunkPause.Duration > 0 {
		cfg.ChunkPause = jc.ChunkPause.Duration
	}
	if jc.UploadRetries > 0 {
		cfg.UploadRetries = jc.UploadRetries
	}
	if jc.UploadExpiry > 0 {
		cfg.UploadExpiry = jc.UploadExpiry
	}
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.S3Endpoint != "" {
		cfg.S3Endpoint = jc.S3Endpoint
	}
	if jc.S3Region != "" {
		cfg.S3Region = jc.S3Region
	}
	if jc.S3Bucket != "" {
		cfg.S3Bucket = jc.S3Bucket
	}
	if jc.S3AccessKey != "" {
		cfg.S3AccessKey = jc.S3AccessKey
	}
	if jc.S3SecretKey != "" {
		cfg.S3SecretKey = jc.S3SecretKey
	}
}
