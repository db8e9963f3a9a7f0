package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

type ProjectConfig struct {
	Connection       ConnectionConfig `yaml:"connection"`
	Namespace        string           `yaml:"namespace"`
	Driver           string           `yaml:"driver"`
	Strategy         string           `yaml:"strategy"`
	Timeout          string           `yaml:"timeout"`
	JobTimeout       string           `yaml:"job_timeout"`
	NormalizeColumns bool             `yaml:"normalize_columns"`
	CreateDatabase   bool             `yaml:"create_database"`
}

const ConfigFileName = "pgingest.yaml"

// Load reads ConfigFileName from the source directory.
func Load(sourcePath string) (*ProjectConfig, error) {
	return LoadFile(filepath.Join(sourcePath, ConfigFileName))
}

// LoadFile reads a project config from an explicit path.
func LoadFile(configPath string) (*ProjectConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return &cfg, nil
}

// TimeoutDuration parses Timeout. Empty means no limit.
func (c *ProjectConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration("timeout", c.Timeout)
}

// JobTimeoutDuration parses JobTimeout. Empty means no limit.
func (c *ProjectConfig) JobTimeoutDuration() (time.Duration, error) {
	return parseDuration("job_timeout", c.JobTimeout)
}

func parseDuration(key, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
