package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultPort = 8737
	DefaultHost = "0.0.0.0"

	DefaultFileWriteDelay = 150 * time.Millisecond
)

var (
	lastReload  time.Time
	reloadMutex sync.Mutex
)

// DefaultConfig returns a configuration with sensible defaults. The
// transport binary path has no sane default: it is always required,
// either on the command line or in the config file.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Transport: TransportConfig{
			Protocol: "obfs4",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Theme:  "default",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Load loads configuration from file and environment variables, then
// lets command-line flags win. onConfigChange, if set, is invoked after
// a debounced config-file rewrite is detected.
func Load(args []string, onConfigChange func()) (*Config, error) {
	cfg := DefaultConfig()

	flags := pflag.NewFlagSet("obfswatch", pflag.ContinueOnError)
	binPath := flags.String("obfs4-bin", "", "filesystem path to the obfuscation-transport helper binary (required)")
	protocol := flags.String("protocol", cfg.Transport.Protocol, "pluggable-transport protocol name")
	host := flags.String("host", cfg.Server.Host, "address the admission boundary listens on")
	port := flags.Int("port", cfg.Server.Port, "port the admission boundary listens on")
	logLevel := flags.String("log-level", cfg.Logging.Level, "log level: debug, info, warn, error")
	configFile := flags.String("config", "", "path to a YAML config file")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("OBFSWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if *configFile != "" {
		viper.SetConfigFile(*configFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if envFile := os.Getenv("OBFSWATCH_CONFIG_FILE"); envFile != "" {
			viper.SetConfigFile(envFile)
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", envFile, err)
			}
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if *binPath != "" {
		cfg.Transport.BinPath = *binPath
	}
	if flags.Changed("protocol") {
		cfg.Transport.Protocol = *protocol
	}
	if flags.Changed("host") {
		cfg.Server.Host = *host
	}
	if flags.Changed("port") {
		cfg.Server.Port = *port
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}

	if cfg.Transport.BinPath == "" {
		return nil, fmt.Errorf("--obfs4-bin is required: no pluggable-transport helper binary configured")
	}

	viper.WatchConfig()
	if onConfigChange != nil {
		viper.OnConfigChange(func(e fsnotify.Event) {
			reloadMutex.Lock()
			defer reloadMutex.Unlock()

			now := time.Now()
			if now.Sub(lastReload) < 500*time.Millisecond {
				return
			}
			lastReload = now

			time.Sleep(DefaultFileWriteDelay)
			onConfigChange()
		})
	}

	return cfg, nil
}
