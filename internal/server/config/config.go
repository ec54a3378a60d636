// Package config handles configuration for the server component,
// including defaults, JSON overlay, environment variables for secrets,
// and command-line flags.
package config

import (
	"os"
	"strings"
	"time"
)

// StoreMode selects the region implementation.
const (
	StoreModeLocal = "local"
	StoreModeREST  = "rest"
)

// TenantGitHub points one tenant at its own GitHub repository. An empty
// field falls back to the top-level GitHub setting.
type TenantGitHub struct {
	ContentOwner string
	ContentRepo  string
	AccessToken  string
}

// Config holds runtime settings for the entry API server.
//
// Fields:
//   - Addr: bind address for the HTTP endpoint.
//   - StoreMode: "local" for the in-process region, "rest" for the Geode
//     REST API.
//   - StoreBaseURL / StoreRegion / StoreUsername / StorePassword: Geode
//     REST API coordinates; ignored in local mode.
//   - GitHubAPIURL / ContentOwner / ContentRepo / AccessToken: the default
//     tenant's authoritative repository.
//   - Tenants: per-tenant repository overrides keyed by tenant id.
//   - WebhookSecret: HMAC secret of the push webhook.
//   - DirectUpdate: write mutations through to GitHub before the region.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test
//     defaults in prod.
//   - TokenValidityDuration: JWT lifetime.
//   - AdminName / AdminPassword / AdminRoles: the operator account.
//   - TenantUsers: per-tenant user definitions
//     ("name|{noop}secret|_=GET,LIST|t1=EDIT").
//   - OpenAIBaseURL / OpenAIAPIKey / OpenAIModel: AI summarize/edit backend.
//   - S3*: object storage settings for image upload presigning.
type Config struct {
	Addr string

	StoreMode     string
	StoreBaseURL  string
	StoreRegion   string
	StoreUsername string
	StorePassword string

	GitHubAPIURL  string
	ContentOwner  string
	ContentRepo   string
	AccessToken   string
	Tenants       map[string]TenantGitHub
	WebhookSecret string
	DirectUpdate  bool

	SecretKey             string
	TokenValidityDuration time.Duration
	AdminName             string
	AdminPassword         string
	AdminRoles            []string
	TenantUsers           []string

	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string

	S3Bucket            string
	S3Region            string
	S3BaseEndpoint      string
	S3AccessKeyID       string
	S3SecretAccessKey   string
	S3PresignExpiration time.Duration
	S3AllowedExtensions []string
	S3CreateBucket      bool
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.StoreMode = StoreModeLocal
	c.StoreBaseURL = "http://127.0.0.1:7070"
	c.StoreRegion = "Entry"
	c.GitHubAPIURL = "https://api.github.com"
	c.ContentOwner = "making"
	c.ContentRepo = "blog.ik.am"
	c.WebhookSecret = "webhookSecret"
	c.SecretKey = "secretKey"
	c.TokenValidityDuration = 1 * time.Hour
	c.AdminName = "admin"
	c.AdminPassword = "changeme"
	c.OpenAIModel = "gpt-4o-mini"
	c.S3Bucket = "blog-images"
	c.S3Region = "us-east-1"
	c.S3PresignExpiration = 10 * time.Minute
	c.S3AllowedExtensions = []string{"png", "jpg", "jpeg", "gif", "webp"}
}

// loadEnv overlays secrets from the environment so they never need to live
// in a config file.
func (c *Config) loadEnv() {
	setIfPresent := func(target *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*target = v
		}
	}
	setIfPresent(&c.AccessToken, "GITHUB_ACCESS_TOKEN")
	setIfPresent(&c.WebhookSecret, "WEBHOOK_SECRET")
	setIfPresent(&c.SecretKey, "JWT_SECRET_KEY")
	setIfPresent(&c.AdminPassword, "ADMIN_PASSWORD")
	setIfPresent(&c.StorePassword, "STORE_PASSWORD")
	setIfPresent(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setIfPresent(&c.S3AccessKeyID, "S3_ACCESS_KEY_ID")
	setIfPresent(&c.S3SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	if v, ok := os.LookupEnv("TENANT_USERS"); ok {
		c.TenantUsers = splitNonEmpty(v, "\n")
	}
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line
// flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	cfg.loadEnv()
	parseFlags(cfg)
	return cfg
}
