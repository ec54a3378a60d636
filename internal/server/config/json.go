package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/categolj/entry-api-gemfire/internal/flagx"
)

// duration parses JSON duration fields given either as strings such as
// "10m" or as integer nanoseconds.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration %s", data)
	}
}

// jsonConfig is the JSON file shape of Config. It is an intermediate DTO;
// after unmarshalling, its fields are copied into the runtime Config.
// Zero values leave the existing Config value in place so a file only
// needs the settings it wants to change.
type jsonConfig struct {
	Addr string `json:"addr"`

	StoreMode     string `json:"store_mode"`
	StoreBaseURL  string `json:"store_base_url"`
	StoreRegion   string `json:"store_region"`
	StoreUsername string `json:"store_username"`
	StorePassword string `json:"store_password"`

	GitHubAPIURL  string                  `json:"github_api_url"`
	ContentOwner  string                  `json:"content_owner"`
	ContentRepo   string                  `json:"content_repo"`
	AccessToken   string                  `json:"access_token"`
	Tenants       map[string]tenantGitHub `json:"tenants"`
	WebhookSecret string                  `json:"webhook_secret"`
	DirectUpdate  *bool                   `json:"direct_update"`

	SecretKey             string   `json:"secret_key"`
	TokenValidityDuration duration `json:"token_validity_duration"`
	AdminName             string   `json:"admin_name"`
	AdminPassword         string   `json:"admin_password"`
	AdminRoles            []string `json:"admin_roles"`
	TenantUsers           []string `json:"tenant_users"`

	OpenAIBaseURL string `json:"openai_base_url"`
	OpenAIAPIKey  string `json:"openai_api_key"`
	OpenAIModel   string `json:"openai_model"`

	S3Bucket            string   `json:"s3_bucket"`
	S3Region            string   `json:"s3_region"`
	S3BaseEndpoint      string   `json:"s3_base_endpoint"`
	S3AccessKeyID       string   `json:"s3_access_key_id"`
	S3SecretAccessKey   string   `json:"s3_secret_access_key"`
	S3PresignExpiration duration `json:"s3_presign_expiration"`
	S3AllowedExtensions []string `json:"s3_allowed_extensions"`
	S3CreateBucket      *bool    `json:"s3_create_bucket"`
}

type tenantGitHub struct {
	ContentOwner string `json:"content_owner"`
	ContentRepo  string `json:"content_repo"`
	AccessToken  string `json:"access_token"`
}

// parseJSON loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; without them no file is loaded. An unreadable or invalid file
// panics since the server cannot start half-configured.
func parseJSON(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	c := &jsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString := func(target *string, v string) {
		if v != "" {
			*target = v
		}
	}
	setString(&config.Addr, c.Addr)
	setString(&config.StoreMode, c.StoreMode)
	setString(&config.StoreBaseURL, c.StoreBaseURL)
	setString(&config.StoreRegion, c.StoreRegion)
	setString(&config.StoreUsername, c.StoreUsername)
	setString(&config.StorePassword, c.StorePassword)
	setString(&config.GitHubAPIURL, c.GitHubAPIURL)
	setString(&config.ContentOwner, c.ContentOwner)
	setString(&config.ContentRepo, c.ContentRepo)
	setString(&config.AccessToken, c.AccessToken)
	setString(&config.WebhookSecret, c.WebhookSecret)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AdminName, c.AdminName)
	setString(&config.AdminPassword, c.AdminPassword)
	setString(&config.OpenAIBaseURL, c.OpenAIBaseURL)
	setString(&config.OpenAIAPIKey, c.OpenAIAPIKey)
	setString(&config.OpenAIModel, c.OpenAIModel)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3AccessKeyID, c.S3AccessKeyID)
	setString(&config.S3SecretAccessKey, c.S3SecretAccessKey)

	if len(c.Tenants) > 0 {
		config.Tenants = make(map[string]TenantGitHub, len(c.Tenants))
		for id, t := range c.Tenants {
			config.Tenants[id] = TenantGitHub(t)
		}
	}
	if c.DirectUpdate != nil {
		config.DirectUpdate = *c.DirectUpdate
	}
	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if len(c.AdminRoles) > 0 {
		config.AdminRoles = c.AdminRoles
	}
	if len(c.TenantUsers) > 0 {
		config.TenantUsers = c.TenantUsers
	}
	if c.S3PresignExpiration.Duration > 0 {
		config.S3PresignExpiration = c.S3PresignExpiration.Duration
	}
	if len(c.S3AllowedExtensions) > 0 {
		config.S3AllowedExtensions = c.S3AllowedExtensions
	}
	if c.S3CreateBucket != nil {
		config.S3CreateBucket = *c.S3CreateBucket
	}
}
