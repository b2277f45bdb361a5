package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/authmatch/internal/sources"
	"github.com/agentstation/authmatch/internal/sources/oclc"
	"github.com/agentstation/authmatch/internal/transport"
	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
	"github.com/agentstation/authmatch/pkg/reconcile"
)

// envPrefix prefixes every environment override, e.g. AUTHMATCH_OUTPUT_DIR.
const envPrefix = "AUTHMATCH"

// Config holds the application configuration loaded from the config file,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	Format  string

	// Config file
	ConfigFile string

	// Comparison
	Tag    string
	Codes  []string
	Strict bool

	// Catalog queries
	OCLCQuery string
	LOCQuery  string

	// Upstream pacing
	LOCDelay           time.Duration
	OCLCDelay          time.Duration
	BreakerMaxFailures int
	BreakerTimeout     time.Duration

	// Catalog database
	DatabaseDriver string
	DatabaseDSN    string

	// WorldCat credentials
	OCLCKey           string
	OCLCSecret        string
	OCLCPrincipalID   string
	OCLCPrincipalIDNS string
	OCLCBaseURL       string
	OCLCTokenURL      string

	// Output
	OutputDir        string
	MaxRecordsPerLog int

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (--config, or .authmatch.yaml in . or $HOME)
// 5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := bindCredentials(v); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	} else {
		v.SetConfigName(".authmatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "cannot parse "+v.ConfigFileUsed(), err)
			}
		}
	}

	config := &Config{
		ConfigFile: v.ConfigFileUsed(),

		Tag:    v.GetString("subfields.tag"),
		Codes:  splitCodes(v.Get("subfields.codes")),
		Strict: v.GetBool("compare.strict"),

		OCLCQuery: v.GetString("sql.oclc_query"),
		LOCQuery:  v.GetString("sql.loc_query"),

		LOCDelay:           v.GetDuration("rate.loc_delay"),
		OCLCDelay:          v.GetDuration("rate.oclc_delay"),
		BreakerMaxFailures: v.GetInt("breaker.max_failures"),
		BreakerTimeout:     v.GetDuration("breaker.timeout"),

		DatabaseDriver: v.GetString("database.driver"),
		DatabaseDSN:    v.GetString("database.dsn"),

		OCLCKey:           v.GetString("oclc.key"),
		OCLCSecret:        v.GetString("oclc.secret"),
		OCLCPrincipalID:   v.GetString("oclc.principal_id"),
		OCLCPrincipalIDNS: v.GetString("oclc.principal_idns"),
		OCLCBaseURL:       v.GetString("oclc.base_url"),
		OCLCTokenURL:      v.GetString("oclc.token_url"),

		OutputDir:        v.GetString("output.dir"),
		MaxRecordsPerLog: v.GetInt("output.max_records_per_log"),

		// Logging configuration
		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("subfields.tag", constants.DefaultTag)
	v.SetDefault("subfields.codes", []string{"a"})
	v.SetDefault("compare.strict", false)
	v.SetDefault("rate.loc_delay", constants.DefaultLOCDelay)
	v.SetDefault("rate.oclc_delay", constants.DefaultOCLCDelay)
	v.SetDefault("breaker.max_failures", constants.DefaultBreakerFailures)
	v.SetDefault("breaker.timeout", constants.DefaultBreakerTimeout)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("oclc.base_url", constants.OCLCMetadataURL)
	v.SetDefault("oclc.token_url", constants.OCLCTokenURL)
	v.SetDefault("output.dir", constants.DefaultOutputDir)
	v.SetDefault("output.max_records_per_log", constants.DefaultMaxRecordsPerLog)
}

// bindCredentials lets credentials come from their conventional bare
// environment names as well as the prefixed ones.
func bindCredentials(v *viper.Viper) error {
	bindings := map[string][]string{
		"oclc.key":            {envPrefix + "_OCLC_KEY", "OCLC_KEY"},
		"oclc.secret":         {envPrefix + "_OCLC_SECRET", "OCLC_SECRET"},
		"oclc.principal_id":   {envPrefix + "_OCLC_PRINCIPAL_ID", "OCLC_PRINCIPAL_ID"},
		"oclc.principal_idns": {envPrefix + "_OCLC_PRINCIPAL_IDNS", "OCLC_PRINCIPAL_IDNS"},
		"database.dsn":        {envPrefix + "_DATABASE_DSN", "DATABASE_URL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return errors.NewConfigError("env", "cannot bind "+key, err)
		}
	}
	return nil
}

// splitCodes accepts subfield codes as a YAML list or a comma separated
// string such as "a, q, d".
func splitCodes(raw any) []string {
	var parts []string
	switch t := raw.(type) {
	case string:
		parts = strings.Split(t, ",")
	case []string:
		parts = t
	case []any:
		for _, p := range t {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
	}
	var codes []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			codes = append(codes, p)
		}
	}
	return codes
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet bool, format, logLevel string) {
	c.Verbose = verbose
	c.Quiet = quiet
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// Settings builds the reconciler settings.
func (c *Config) Settings() reconcile.Settings {
	policy := reconcile.PolicyTypeContainment
	if c.Strict {
		policy = reconcile.PolicyTypeStrict
	}
	return reconcile.Settings{
		Tag:              c.Tag,
		Codes:            c.Codes,
		OCLCQuery:        c.OCLCQuery,
		LOCQuery:         c.LOCQuery,
		LOCDelay:         c.LOCDelay,
		OCLCDelay:        c.OCLCDelay,
		Policy:           policy,
		OutputDir:        c.OutputDir,
		MaxRecordsPerLog: c.MaxRecordsPerLog,
	}
}

// Sources builds the authority source configuration. Request delays are
// carried by Settings.
func (c *Config) Sources() sources.Config {
	return sources.Config{
		OCLC: oclc.Config{
			Key:           c.OCLCKey,
			Secret:        c.OCLCSecret,
			PrincipalID:   c.OCLCPrincipalID,
			PrincipalIDNS: c.OCLCPrincipalIDNS,
			TokenURL:      c.OCLCTokenURL,
			BaseURL:       c.OCLCBaseURL,
		},
		Breaker: transport.BreakerConfig{
			MaxFailures: uint32(max(c.BreakerMaxFailures, 0)),
			Timeout:     c.BreakerTimeout,
		},
	}
}

// loadEnvFiles loads environment variables from .env files.
func loadEnvFiles() {
	// .env.local overrides .env
	envFiles := []string{
		".env.local",
		".env",
	}

	for _, envFile := range envFiles {
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
