// Package auth implements the configuration convention shared by every helper:
// which project to act on, which credentials to use, and where the service lives.
//
// A Config is resolved into google.golang.org/api option.ClientOption values that
// every Google Cloud client constructor accepts, so the helpers never deal with
// credentials themselves.
package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"gopkg.in/yaml.v3"

	gcperrors "github.com/input-output-hk/catalyst-forge-libs/gcp/errors"
)

// CloudPlatformScope grants access to all Google Cloud APIs the helpers use.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// DefaultLocation is the location used for BigQuery datasets and jobs when none is
// configured.
const DefaultLocation = "US"

// Environment variables read by FromEnv.
const (
	EnvProject     = "GOOGLE_CLOUD_PROJECT"
	EnvProjectAlt  = "GCP_PROJECT"
	EnvCredentials = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvLocation    = "GCP_LOCATION"
)

// Config describes how to reach Google Cloud.
type Config struct {
	// ProjectID is the project every helper operates on. Required.
	ProjectID string `yaml:"project_id"`

	// CredentialsFile is a service account key file. When empty, Application
	// Default Credentials are used.
	CredentialsFile string `yaml:"credentials_file"`

	// Scopes requested for the credentials. Defaults to CloudPlatformScope.
	Scopes []string `yaml:"scopes"`

	// Location is the default location for location-aware resources.
	Location string `yaml:"location"`

	// Endpoint overrides the service endpoint, typically for an emulator.
	Endpoint string `yaml:"endpoint"`

	// WithoutAuthentication disables credentials entirely. Emulators only.
	WithoutAuthentication bool `yaml:"without_authentication"`
}

// FromEnv builds a Config from the standard Google Cloud environment variables.
func FromEnv() *Config {
	project := os.Getenv(EnvProject)
	if project == "" {
		project = os.Getenv(EnvProjectAlt)
	}

	return &Config{
		ProjectID:       project,
		CredentialsFile: os.Getenv(EnvCredentials),
		Location:        os.Getenv(EnvLocation),
	}
}

// LoadFile reads a YAML config file. Fields missing from the file are left empty.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes a YAML config document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields every helper needs.
func (c *Config) Validate() error {
	if c == nil {
		return gcperrors.Invalid("auth.Validate", "", "config cannot be nil")
	}
	if strings.TrimSpace(c.ProjectID) == "" {
		return gcperrors.Invalid("auth.Validate", "", "project ID cannot be empty")
	}
	if c.WithoutAuthentication && c.CredentialsFile != "" {
		return gcperrors.Invalid("auth.Validate", c.ProjectID,
			"credentials file cannot be combined with WithoutAuthentication")
	}
	return nil
}

// LocationOrDefault returns the configured location or DefaultLocation.
func (c *Config) LocationOrDefault() string {
	if c.Location == "" {
		return DefaultLocation
	}
	return c.Location
}

// ScopesOrDefault returns the configured scopes or the cloud-platform scope.
func (c *Config) ScopesOrDefault() []string {
	if len(c.Scopes) == 0 {
		return []string{CloudPlatformScope}
	}
	return c.Scopes
}

// ClientOptions resolves the config into client options. Credentials files are
// read here so that a bad key fails fast instead of on the first API call.
func (c *Config) ClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var opts []option.ClientOption

	switch {
	case c.WithoutAuthentication:
		opts = append(opts, option.WithoutAuthentication())
	case c.CredentialsFile != "":
		data, err := os.ReadFile(c.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("reading credentials file %q: %w", c.CredentialsFile, err)
		}
		creds, err := google.CredentialsFromJSONWithParams(ctx, data, google.CredentialsParams{
			Scopes: c.ScopesOrDefault(),
		})
		if err != nil {
			return nil, fmt.Errorf("parsing credentials file %q: %w", c.CredentialsFile, err)
		}
		opts = append(opts, option.WithCredentials(creds))
	default:
		opts = append(opts, option.WithScopes(c.ScopesOrDefault()...))
	}

	if c.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.Endpoint))
	}

	return opts, nil
}
