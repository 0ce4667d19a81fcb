package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ledgerline/mdm/pkg/constants"
	"github.com/ledgerline/mdm/pkg/errors"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string
	DryRun  bool

	// Config file
	ConfigFile string

	// Engine configuration
	DataPath   string
	RulesPath  string
	Workers    int
	ShardSize  int
	StaleAfter time.Duration
	ClientID   string
	Actor      string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (MDM_ prefix)
// 3. .env files
// 4. Config file (.mdm.yaml in the working or home directory)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile is LoadConfig with an explicit config file, which must
// exist. An empty path searches the standard locations.
func LoadConfigFile(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix("MDM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("data", constants.DefaultDataFile)
	v.SetDefault("workers", constants.DefaultWorkers)
	v.SetDefault("shard_size", constants.DefaultShardSize)
	v.SetDefault("stale_after", constants.StaleAfter)
	v.SetDefault("actor", os.Getenv("USER"))

	if path == "" {
		path = v.GetString("config")
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.WrapIO("read", path, err)
		}
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".mdm")
		// A missing config file is fine
		_ = v.ReadInConfig()
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		DataPath:   v.GetString("data"),
		RulesPath:  v.GetString("rules"),
		Workers:    v.GetInt("workers"),
		ShardSize:  v.GetInt("shard_size"),
		StaleAfter: v.GetDuration("stale_after"),
		ClientID:   v.GetString("client_id"),
		Actor:      v.GetString("actor"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", v.GetString("log_level")),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if config.Actor == "" {
		config.Actor = "unknown"
	}
	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags so flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	c.NoColor = noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads .env then .env.local; variables already set win.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
