package pgingest

import (
	"errors"
	"fmt"
	"time"
)

// IngestConfig contains all parameters of one ingestion run.
type IngestConfig struct {
	// SourcePath is the directory containing the source files.
	SourcePath string

	// Namespace is the destination schema. Empty means DefaultNamespace.
	Namespace string

	// DatabaseName is the target database, used only for display and --create-database.
	DatabaseName string

	// Timeout bounds the whole run. Zero means no limit.
	Timeout time.Duration

	// JobTimeout bounds each LoadJob. Zero means no limit.
	JobTimeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// EffectiveNamespace returns Namespace or the store default.
func (c *IngestConfig) EffectiveNamespace() string {
	if c.Namespace == "" {
		return DefaultNamespace
	}
	return c.Namespace
}

// Validate checks if the IngestConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *IngestConfig) Validate() error {
	var errs []error

	if c.SourcePath == "" {
		errs = append(errs, fmt.Errorf("SourcePath is required: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	if c.JobTimeout < 0 {
		errs = append(errs, fmt.Errorf("job timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// Driver selects the database/sql or native client stack.
type Driver string

const (
	DriverPgx Driver = "pgx" // jackc/pgx native pool, binary COPY
	DriverPq  Driver = "pq"  // database/sql with lib/pq
)

// ParseDriver validates a driver name. Empty selects DriverPgx.
func ParseDriver(s string) (Driver, error) {
	switch Driver(s) {
	case "", DriverPgx:
		return DriverPgx, nil
	case DriverPq:
		return DriverPq, nil
	default:
		return "", fmt.Errorf("driver %q (want pgx or pq): %w", s, ErrUnsupportedDriver)
	}
}

// TransferMode selects how the transfer engine picks a strategy.
type TransferMode string

const (
	// TransferAuto uses bulk copy when the connection supports it, else row-wise insert.
	TransferAuto TransferMode = "auto"

	// TransferCopy requires bulk copy and fails jobs when it is unavailable.
	TransferCopy TransferMode = "copy"

	// TransferInsert always uses row-wise parameterized inserts.
	TransferInsert TransferMode = "insert"
)

// ParseTransferMode validates a mode name. Empty selects TransferAuto.
func ParseTransferMode(s string) (TransferMode, error) {
	switch TransferMode(s) {
	case "", TransferAuto:
		return TransferAuto, nil
	case TransferCopy:
		return TransferCopy, nil
	case TransferInsert:
		return TransferInsert, nil
	default:
		return "", fmt.Errorf("strategy %q (want auto, copy or insert): %w", s, ErrInvalidConfig)
	}
}

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWSRegion is required for AuthMethodAWSIAM.
	AWSRegion string

	// GoogleInstance is the Cloud SQL instance connection name (project:region:instance)
	// used with AuthMethodGoogleIAM.
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod maps a config/flag value to an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch s {
	case "", "standard":
		return AuthMethodStandard, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("auth method %q: %w", s, ErrUnsupportedAuthMethod)
	}
}
