package config

import (
	"encoding/json"
	"os"

	"github.com/dkravets/irisvault/internal/flagx"
	"github.com/dkravets/irisvault/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "1h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its non-zero fields are copied
// into the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	Addr                string         `json:"addr"`
	StorageRoot         string         `json:"storage_root"`
	SnapshotPath        string         `json:"snapshot_path"`
	DirectoryBackend    string         `json:"directory_backend"`
	DatabaseDSN         string         `json:"database_dsn"`
	BlobBackend         string         `json:"blob_backend"`
	S3RootUser          string         `json:"s3_root_user"`
	S3RootPassword      string         `json:"s3_root_password"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3BaseEndpoint      string         `json:"s3_base_endpoint"`
	AdminSecret         string         `json:"admin_secret"`
	AdminReferenceImage string         `json:"admin_reference_image"`
	SessionSecret       string         `json:"session_secret"`
	SessionValidity     timex.Duration `json:"session_validity"`
	MaxUploadBytes      int            `json:"max_upload_bytes"`
	ConvertCommand      string         `json:"convert_command"`
	ConvertWorkers      int            `json:"convert_workers"`
	ScratchDir          string         `json:"scratch_dir"`
	ScratchTTL          timex.Duration `json:"scratch_ttl"`
	ShutdownGrace       timex.Duration `json:"shutdown_grace"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The JSON file path comes from the -c or -config command-line flags; when
// neither is set, no file is loaded. Only fields present in the file
// override the current values. If the file cannot be read or contains
// invalid JSON, the function panics: a requested but unusable config file is
// a startup error, not something to silently ignore.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.Addr, c.Addr)
	setString(&config.StorageRoot, c.StorageRoot)
	setString(&config.SnapshotPath, c.SnapshotPath)
	setString(&config.DirectoryBackend, c.DirectoryBackend)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.BlobBackend, c.BlobBackend)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.AdminSecret, c.AdminSecret)
	setString(&config.AdminReferenceImage, c.AdminReferenceImage)
	setString(&config.SessionSecret, c.SessionSecret)
	setString(&config.ConvertCommand, c.ConvertCommand)
	setString(&config.ScratchDir, c.ScratchDir)

	if c.SessionValidity.Duration != 0 {
		config.SessionValidity = c.SessionValidity.Duration
	}
	if c.ScratchTTL.Duration != 0 {
		config.ScratchTTL = c.ScratchTTL.Duration
	}
	if c.ShutdownGrace.Duration != 0 {
		config.ShutdownGrace = c.ShutdownGrace.Duration
	}
	if c.MaxUploadBytes != 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	if c.ConvertWorkers != 0 {
		config.ConvertWorkers = c.ConvertWorkers
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
