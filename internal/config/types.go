package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	Logging     LoggingConfig     `yaml:"logging"`
	Server      ServerConfig      `yaml:"server"`
	Transport   TransportConfig   `yaml:"transport"`
	Engineering EngineeringConfig `yaml:"engineering"`
}

// ServerConfig holds HTTP admission-boundary configuration.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TransportConfig points at the pluggable-transport helper binary the
// facade bootstraps once at engine start.
type TransportConfig struct {
	BinPath  string `yaml:"bin_path"`
	Protocol string `yaml:"protocol"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Theme  string `yaml:"theme"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// EngineeringConfig holds development/debugging configuration.
type EngineeringConfig struct {
	ShowNerdStats bool `yaml:"show_nerdstats"`
}
