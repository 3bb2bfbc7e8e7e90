package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/mosaicnetworks/mpl/src/common"
	"github.com/mosaicnetworks/mpl/src/mpl"
)

// Default filenames.
const (
	// DefaultBadgerFile is the default name of the folder containing the Badger
	// database
	DefaultBadgerFile = "badger_db"

	// DefaultConfigName is the name of the config file, without extension,
	// looked up in the data directory.
	DefaultConfigName = "mpl"
)

// Default configuration values.
const (
	DefaultLogLevel          = "debug"
	DefaultServiceAddr       = "127.0.0.1:8000"
	DefaultNoService         = false
	DefaultStore             = false
	DefaultCacheSize         = 10000
	DefaultLifecycleInterval = time.Second
	DefaultQueueSize         = 128
)

// Config contains all the configuration properties of an MPL node.
type Config struct {
	// MPL holds the protocol parameters. Its keys are the upper-case option
	// names (REACTIVE_FORWARDING, DATA_MESSAGE_IMIN, ...).
	MPL mpl.Config `mapstructure:",squash"`

	// DataDir is the top-level directory containing configuration and data.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// Moniker defines the friendly name of this node
	Moniker string `mapstructure:"moniker"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the optional HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// Store activates persistant storage of deliveries.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing database files.
	DatabaseDir string `mapstructure:"db"`

	// CacheSize is the max number of deliveries kept by the in-memory store.
	CacheSize int `mapstructure:"cache-size"`

	// LifecycleInterval is the period of the seed lifetime tick. Seed
	// lifetimes are counted in ticks.
	LifecycleInterval time.Duration `mapstructure:"lifecycle"`

	// QueueSize is the capacity of the inbound packet queue of a node.
	// Packets arriving on a full queue are dropped.
	QueueSize int `mapstructure:"queue-size"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		MPL:               *mpl.DefaultConfig(),
		DataDir:           DefaultDataDir(),
		LogLevel:          DefaultLogLevel,
		NoService:         DefaultNoService,
		ServiceAddr:       DefaultServiceAddr,
		Store:             DefaultStore,
		DatabaseDir:       DefaultDatabaseDir(),
		CacheSize:         DefaultCacheSize,
		LifecycleInterval: DefaultLifecycleInterval,
		QueueSize:         DefaultQueueSize,
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// FromOptions builds a Config from a map of options. Defaults are kept for
// every key the map does not set. Keys match case-insensitively. Numbers
// decoded into durations are read as seconds and strings are parsed with
// time.ParseDuration. When DATA_MESSAGE_IMAX is not set it follows
// DATA_MESSAGE_IMIN.
func FromOptions(opts map[string]interface{}) (*Config, error) {
	config := NewDefaultConfig()
	if err := config.Merge(opts); err != nil {
		return nil, err
	}
	return config, nil
}

// Merge decodes opts on top of the current values.
func (c *Config) Merge(opts map[string]interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			secondsToDurationHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		Result:           c,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(opts); err != nil {
		return fmt.Errorf("decoding options: %w", err)
	}

	if hasKey(opts, "DATA_MESSAGE_IMIN") && !hasKey(opts, "DATA_MESSAGE_IMAX") {
		c.MPL.DataMessageIMax = c.MPL.DataMessageIMin
	}

	return nil
}

// Validate checks the protocol parameters and node settings.
func (c *Config) Validate() error {
	if err := c.MPL.Validate(); err != nil {
		return err
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache-size must be positive, got %d", c.CacheSize)
	}
	if c.LifecycleInterval <= 0 {
		return fmt.Errorf("lifecycle must be positive, got %v", c.LifecycleInterval)
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue-size must be positive, got %d", c.QueueSize)
	}
	return nil
}

// SetDataDir sets the top-level directory, and updates the database directory
// if it is currently set to the default value.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultBadgerFile)
	}
}

// SetLogger replaces the logger returned by Logger.
func (c *Config) SetLogger(logger *logrus.Logger) {
	c.logger = logger
}

// Logger returns a formatted logrus Entry, with prefix set to "mpl".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger.WithField("prefix", "mpl")
}

// DefaultDatabaseDir returns the default path for the badger database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultBadgerFile)
}

// DefaultDataDir return the default directory name for top-level config based
// on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".MPL")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "MPL")
		} else {
			return filepath.Join(home, ".mpl")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

func secondsToDurationHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if t != durationType || f == durationType {
		return data, nil
	}
	switch v := data.(type) {
	case int:
		return time.Duration(v) * time.Second, nil
	case int32:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case uint:
		return time.Duration(v) * time.Second, nil
	case float32:
		return time.Duration(float64(v) * float64(time.Second)), nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}

func hasKey(opts map[string]interface{}, key string) bool {
	for k := range opts {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
