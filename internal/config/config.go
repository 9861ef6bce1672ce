// Package config defines the configuration of the engine host process.
// Configuration is loaded once at process start and is immutable thereafter.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
//
// A missing required value or an invalid format makes LoadConfig fail; callers
// are expected to abort startup.
package config

// Config is the top-level configuration of the engine host.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`

	AWS    AWSConfig
	Engine EngineConfig
}

// AWSConfig holds the AWS settings used to resolve _SSM_PARAM indirections.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// EngineConfig describes the engine process whose environment is reported.
type EngineConfig struct {
	// Component is the name printed in the "Starting ..." banner line.
	Component string `envconfig:"ENGINE_COMPONENT" default:"engine-host" validate:"required"`

	// Home is the installation directory of the engine. Optional.
	Home string `envconfig:"ENGINE_HOME"`

	// InheritedLogs is log output captured by a launcher script before the
	// process started; it is replayed at the top of the banner. Nil when the
	// variable is unset. Set but empty still opens the Preconfiguration block.
	InheritedLogs *string `envconfig:"ENGINE_INHERITED_LOGS"`

	// VersionProperties overrides the embedded build metadata resource with a
	// file on disk. Optional.
	VersionProperties string `envconfig:"ENGINE_VERSION_PROPERTIES"`

	// SensitiveKeys extends the built-in list of substrings that mark a program
	// argument as sensitive.
	SensitiveKeys []string `envconfig:"ENGINE_SENSITIVE_KEYS"`
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrMissingEnv indicates a required environment variable was not found.
	ErrMissingEnv ConfigErrorType = "MISSING_ENV"
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
