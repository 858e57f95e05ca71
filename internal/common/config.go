package common

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

// Version is stamped into the User-Agent and X-Interceptor-Version headers.
const Version = "3.0.0"

// Config holds all application configuration
type Config struct {
	API     APIConfig
	Spool   SpoolConfig
	Ledger  LedgerConfig
	Parser  ParserConfig
	DataDir string
	Debug   bool
}

// APIConfig holds remote-endpoint configuration
type APIConfig struct {
	Endpoint       string
	Key            string
	TerminalID     string
	LocationID     string
	Timeout        time.Duration
	RetryAttempts  int
	AutoRegister   bool
	HealthInterval time.Duration
	StatusInterval time.Duration
}

// SpoolConfig holds spool-directory configuration
type SpoolConfig struct {
	Path         string
	PollInterval time.Duration
	MinJobSize   int64
}

// LedgerConfig bounds the in-memory job ledger
type LedgerConfig struct {
	MaxEntries int
}

// ParserConfig holds receipt-parser tuning
type ParserConfig struct {
	MinTextLength int
	MaxRawContent int
}

// LoadConfig loads configuration from environment variables, then merges any
// persisted config file in the data dir over the env defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			Endpoint:       getEnv("API_ENDPOINT", ""),
			Key:            getEnv("API_KEY", ""),
			TerminalID:     getEnv("TERMINAL_ID", ""),
			LocationID:     getEnv("LOCATION_ID", ""),
			Timeout:        getEnvAsDuration("API_TIMEOUT", 5*time.Second),
			RetryAttempts:  getEnvAsInt("RETRY_ATTEMPTS", 3),
			AutoRegister:   getEnvAsBool("AUTO_REGISTER", true),
			HealthInterval: getEnvAsDuration("HEALTH_CHECK_INTERVAL", 60*time.Second),
			StatusInterval: getEnvAsDuration("STATUS_INTERVAL", 10*time.Second),
		},
		Spool: SpoolConfig{
			Path:         getEnv("PRINT_SPOOL_PATH", defaultSpoolPath()),
			PollInterval: getEnvAsDuration("POLL_INTERVAL", 500*time.Millisecond),
			MinJobSize:   int64(getEnvAsInt("MIN_JOB_SIZE", 50)),
		},
		Ledger: LedgerConfig{
			MaxEntries: getEnvAsInt("LEDGER_MAX_ENTRIES", 10000),
		},
		Parser: ParserConfig{
			MinTextLength: getEnvAsInt("PARSER_MIN_TEXT_LENGTH", 10),
			MaxRawContent: getEnvAsInt("PARSER_MAX_RAW_CONTENT", 5000),
		},
		DataDir: getEnv("DATA_DIR", defaultDataDir()),
		Debug:   getEnvAsBool("DEBUG", false),
	}

	if err := cfg.mergeFile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FilePath is the location of the persisted JSON config.
func (c *Config) FilePath() string {
	return filepath.Join(c.DataDir, "config.json")
}

// LogDir is where daily log files are written.
func (c *Config) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// HistoryPath is the local delivery-history database file.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// fileConfig is the persisted subset. Flat keys for compatibility with config
// files written by earlier versions and by the setup wizard.
type fileConfig struct {
	APIEndpoint   string `json:"apiEndpoint,omitempty"`
	APIKey        string `json:"apiKey,omitempty"`
	TerminalID    string `json:"terminalId,omitempty"`
	LocationID    string `json:"locationId,omitempty"`
	RetryAttempts int    `json:"retryAttempts,omitempty"`
	APITimeoutMS  int    `json:"apiTimeout,omitempty"`
	AutoRegister  *bool  `json:"autoRegister,omitempty"`
}

// mergeFile overlays the persisted config file, if present and valid, over
// the env-derived values. A missing file is not an error; a malformed or
// schema-invalid one is.
func (c *Config) mergeFile() error {
	raw, err := os.ReadFile(c.FilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return WrapError(err, "read config file")
	}
	if err := ValidateConfigFile(raw); err != nil {
		return WrapError(err, "validate config file")
	}

	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return WrapError(err, "decode config file")
	}

	if fc.APIEndpoint != "" {
		c.API.Endpoint = fc.APIEndpoint
	}
	if fc.APIKey != "" {
		c.API.Key = fc.APIKey
	}
	if fc.TerminalID != "" {
		c.API.TerminalID = fc.TerminalID
	}
	if fc.LocationID != "" {
		c.API.LocationID = fc.LocationID
	}
	if fc.RetryAttempts > 0 {
		c.API.RetryAttempts = fc.RetryAttempts
	}
	if fc.APITimeoutMS > 0 {
		c.API.Timeout = time.Duration(fc.APITimeoutMS) * time.Millisecond
	}
	if fc.AutoRegister != nil {
		c.API.AutoRegister = *fc.AutoRegister
	}
	return nil
}

// Save persists the registration-relevant fields back to the config file.
// Called after auto-registration so credentials survive restarts.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return WrapError(err, "create data dir")
	}
	auto := c.API.AutoRegister
	fc := fileConfig{
		APIEndpoint:   c.API.Endpoint,
		APIKey:        c.API.Key,
		TerminalID:    c.API.TerminalID,
		LocationID:    c.API.LocationID,
		RetryAttempts: c.API.RetryAttempts,
		APITimeoutMS:  int(c.API.Timeout / time.Millisecond),
		AutoRegister:  &auto,
	}
	bs, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return WrapError(err, "encode config")
	}
	if err := os.WriteFile(c.FilePath(), bs, 0o644); err != nil {
		return WrapError(err, "write config file")
	}
	return nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Spool.Path == "" {
		return NewAppError("CONFIG_ERROR", "spool path is required", ErrInvalidInput)
	}
	if c.Spool.PollInterval <= 0 {
		return NewAppError("CONFIG_ERROR", "poll interval must be positive", ErrInvalidInput)
	}
	if c.API.RetryAttempts < 1 {
		return NewAppError("CONFIG_ERROR", "retry attempts must be at least 1", ErrInvalidInput)
	}
	if c.Ledger.MaxEntries < 2 {
		return NewAppError("CONFIG_ERROR", "ledger max entries must be at least 2", ErrInvalidInput)
	}
	return nil
}

func defaultSpoolPath() string {
	if runtime.GOOS == "windows" {
		return `C:\Windows\System32\spool\PRINTERS`
	}
	return "/var/spool/cups"
}

func defaultDataDir() string {
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "ReceiptInterceptor")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "ReceiptInterceptor")
	}
	return filepath.Join(home, ".receipt-interceptor")
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// bare integers are treated as milliseconds, matching the old
		// config file convention
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
