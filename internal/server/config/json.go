package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sampottinger/kipling-package-index/internal/flagx"
	"github.com/sampottinger/kipling-package-index/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations use timex.Duration so
// both "15m" and integer nanoseconds are accepted. Pointer fields let a file
// override only the keys it mentions.
type JsonConfig struct {
	EndpointAddr    *string         `json:"endpoint_addr"`
	StoreDriver     *string         `json:"store_driver"`
	DatabaseDSN     *string         `json:"database_dsn"`
	LogLevel        *string         `json:"log_level"`
	UploadSigner    *string         `json:"upload_signer"`
	UploadTTL       *timex.Duration `json:"upload_ttl"`
	S3Bucket        *string         `json:"s3_bucket"`
	S3ObjectHost    *string         `json:"s3_object_host"`
	S3AccessKey     *string         `json:"s3_access_key"`
	S3SecretKey     *string         `json:"s3_secret_key"`
	S3Region        *string         `json:"s3_region"`
	S3BaseEndpoint  *string         `json:"s3_base_endpoint"`
	MailFromAddress *string         `json:"mail_from_address"`
	MailFromName    *string         `json:"mail_from_name"`
	SMTPAddr        *string         `json:"smtp_addr"`
	SMTPUser        *string         `json:"smtp_user"`
	SMTPPassword    *string         `json:"smtp_password"`
}

// parseJson overlays the JSON file given with -c or -config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.StoreDriver, c.StoreDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.UploadSigner, c.UploadSigner)
	if c.UploadTTL != nil {
		config.UploadTTL = c.UploadTTL.Duration
	}
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3ObjectHost, c.S3ObjectHost)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.MailFromAddress, c.MailFromAddress)
	setString(&config.MailFromName, c.MailFromName)
	setString(&config.SMTPAddr, c.SMTPAddr)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
