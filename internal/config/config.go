// Package config assembles the service configuration from, in increasing
// priority: built-in defaults, a JSON config file, the .env file and the
// process environment, and command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"io/fs"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// EnvironmentDevelopment enables verbose error responses (stack traces).
const EnvironmentDevelopment = "development"

// Config holds every tunable of the service.
type Config struct {
	RunAddr         string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	Port            string        `env:"PORT" json:"port" validate:"omitempty,numeric"`
	LogLevel        string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	Environment     string        `env:"APP_ENV" json:"app_env" validate:"required"`
	NodeEnv         string        `env:"NODE_ENV" json:"-"`
	StaticDir       string        `env:"STATIC_DIR" json:"static_dir" validate:"required"`
	SeedFile        string        `env:"SEED_FILE" json:"seed_file" validate:"seedfile"`
	BcryptCost      int           `env:"BCRYPT_COST" json:"bcrypt_cost" validate:"min=4,max=31"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" json:"read_timeout"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" json:"write_timeout"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" json:"shutdown_timeout"`
	ConfigFile      string        `env:"CONFIG" json:"-"`
}

var defaultConfig = Config{
	RunAddr:         ":3001",
	LogLevel:        "info",
	Environment:     "production",
	StaticDir:       "public",
	SeedFile:        "",
	BcryptCost:      10,
	ReadTimeout:     10 * time.Second,
	WriteTimeout:    10 * time.Second,
	ShutdownTimeout: 10 * time.Second,
}

// IsDevelopment reports whether error responses may expose internals.
func (c *Config) IsDevelopment() bool {
	return c.Environment == EnvironmentDevelopment
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs overrides the command-line arguments (os.Args[1:] by default).
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

// New builds and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}

	var flagValues Config
	if !options.disableFlagsParsing {
		if err := parseFlags(&flagValues, options.args); err != nil {
			return nil, err
		}
	}

	configFile := valuesFromEnv.ConfigFile
	if flagValues.ConfigFile != "" {
		configFile = flagValues.ConfigFile
	}
	if configFile != "" {
		fromFile, err := readJSONFile(configFile)
		if err != nil {
			return nil, err
		}
		applyDefaults(values, *fromFile)
	}

	// NODE_ENV stands in for an unset APP_ENV.
	if valuesFromEnv.Environment == "" {
		valuesFromEnv.Environment = valuesFromEnv.NodeEnv
	}

	override(values, &valuesFromEnv)
	override(values, &flagValues)

	// PORT alone picks the listening port, SERVER_ADDRESS wins when both are set.
	if values.Port != "" && valuesFromEnv.RunAddr == "" && flagValues.RunAddr == "" {
		values.RunAddr = ":" + values.Port
	}

	if err := validate(values); err != nil {
		return nil, err
	}

	return values, nil
}

func parseFlags(values *Config, args []string) error {
	flags := flag.NewFlagSet("inoutbooks", flag.ContinueOnError)
	flags.StringVar(&values.RunAddr, "a", "", "address and port to run server")
	flags.StringVar(&values.LogLevel, "l", "", "logger level")
	flags.StringVar(&values.StaticDir, "s", "", "directory with static files")
	flags.StringVar(&values.SeedFile, "f", "", "JSON file with seed books and users")
	flags.StringVar(&values.ConfigFile, "c", "", "JSON configuration file")

	return flags.Parse(args)
}

func readJSONFile(fileName string) (*Config, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	var result Config
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// applyDefaults copies every non-zero field of source into values.
func applyDefaults(values *Config, source Config) {
	override(values, &source)
}

func override(values, source *Config) {
	if source.RunAddr != "" {
		values.RunAddr = source.RunAddr
	}

	if source.Port != "" {
		values.Port = source.Port
	}

	if source.LogLevel != "" {
		values.LogLevel = source.LogLevel
	}

	if source.Environment != "" {
		values.Environment = source.Environment
	}

	if source.StaticDir != "" {
		values.StaticDir = source.StaticDir
	}

	if source.SeedFile != "" {
		values.SeedFile = source.SeedFile
	}

	if source.BcryptCost != 0 {
		values.BcryptCost = source.BcryptCost
	}

	if source.ReadTimeout != 0 {
		values.ReadTimeout = source.ReadTimeout
	}

	if source.WriteTimeout != 0 {
		values.WriteTimeout = source.WriteTimeout
	}

	if source.ShutdownTimeout != 0 {
		values.ShutdownTimeout = source.ShutdownTimeout
	}
}

func validateSeedFile(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	info, err := os.Stat(path)

	return err == nil && !info.IsDir()
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func validate(values *Config) error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("seedfile", validateSeedFile)
	if err != nil {
		return err
	}

	return validate.Struct(values)
}
