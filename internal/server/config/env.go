package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from environment variables. Invalid
// numeric or duration values are ignored and the previous value is kept;
// a malformed environment should not take the vault down when the defaults
// still work.
func parseEnv(config *Config) {
	setString(&config.Addr, os.Getenv("IRISVAULT_ADDR"))
	setString(&config.StorageRoot, os.Getenv("IRISVAULT_STORAGE_ROOT"))
	setString(&config.SnapshotPath, os.Getenv("IRISVAULT_SNAPSHOT_PATH"))
	setString(&config.DirectoryBackend, os.Getenv("IRISVAULT_DIRECTORY_BACKEND"))
	setString(&config.DatabaseDSN, os.Getenv("IRISVAULT_DATABASE_DSN"))
	setString(&config.BlobBackend, os.Getenv("IRISVAULT_BLOB_BACKEND"))
	setString(&config.S3RootUser, os.Getenv("IRISVAULT_S3_ROOT_USER"))
	setString(&config.S3RootPassword, os.Getenv("IRISVAULT_S3_ROOT_PASSWORD"))
	setString(&config.S3Bucket, os.Getenv("IRISVAULT_S3_BUCKET"))
	setString(&config.S3Region, os.Getenv("IRISVAULT_S3_REGION"))
	setString(&config.S3BaseEndpoint, os.Getenv("IRISVAULT_S3_BASE_ENDPOINT"))
	setString(&config.AdminSecret, os.Getenv("IRISVAULT_ADMIN_SECRET"))
	setString(&config.AdminReferenceImage, os.Getenv("IRISVAULT_ADMIN_REFERENCE_IMAGE"))
	setString(&config.SessionSecret, os.Getenv("IRISVAULT_SESSION_SECRET"))
	setString(&config.ConvertCommand, os.Getenv("IRISVAULT_CONVERT_COMMAND"))
	setString(&config.ScratchDir, os.Getenv("IRISVAULT_SCRATCH_DIR"))

	setDuration(&config.SessionValidity, os.Getenv("IRISVAULT_SESSION_VALIDITY"))
	setDuration(&config.ScratchTTL, os.Getenv("IRISVAULT_SCRATCH_TTL"))
	setDuration(&config.ShutdownGrace, os.Getenv("IRISVAULT_SHUTDOWN_GRACE"))

	setInt(&config.MaxUploadBytes, os.Getenv("IRISVAULT_MAX_UPLOAD_BYTES"))
	setInt(&config.ConvertWorkers, os.Getenv("IRISVAULT_CONVERT_WORKERS"))
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if parsed, err := time.ParseDuration(v); err == nil && parsed > 0 {
		*dst = parsed
	}
}

func setInt(dst *int, v string) {
	if v == "" {
		return
	}
	if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
		*dst = parsed
	}
}
