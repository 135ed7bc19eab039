package log

import (
	"io"
	"sync"
)

const (
	timestampFormat = " 02/01/2006 15:04:05 "
	spacer          = " | "
	// DefaultMaxFileSize for logger rotation file in megabytes
	DefaultMaxFileSize = 100
	// DefaultMaxBackups is the amount of rotated log files kept on disk
	DefaultMaxBackups = 3
)

var (
	logger       = Logger{}
	globalConfig = GenDefaultSettings()

	// read/write mutex for logger
	mu = &sync.RWMutex{}
)

// Config holds configuration settings for the logger
type Config struct {
	Enabled *bool `json:"enabled" toml:"enabled"`
	SubLoggerConfig
	LoggerFileConfig *FileConfig       `json:"file-settings,omitempty" toml:"file-settings,omitempty"`
	AdvancedSettings AdvancedSettings  `json:"advanced-settings" toml:"advanced-settings"`
	SubLoggers       []SubLoggerConfig `json:"subloggers,omitempty" toml:"subloggers,omitempty"`
}

// AdvancedSettings holds formatting options
type AdvancedSettings struct {
	ShowLogSystemName *bool   `json:"show-log-system-name" toml:"show-log-system-name"`
	Spacer            string  `json:"spacer" toml:"spacer"`
	TimeStampFormat   string  `json:"timestamp-format" toml:"timestamp-format"`
	Headers           Headers `json:"headers" toml:"headers"`
}

// Headers are prepended to each log line depending on its level
type Headers struct {
	Info  string `json:"info" toml:"info"`
	Warn  string `json:"warn" toml:"warn"`
	Debug string `json:"debug" toml:"debug"`
	Error string `json:"error" toml:"error"`
}

// SubLoggerConfig holds sub logger configuration settings
type SubLoggerConfig struct {
	Name   string `json:"name,omitempty" toml:"name,omitempty"`
	Level  string `json:"level" toml:"level"`
	Output string `json:"output" toml:"output"`
}

// FileConfig defines where and how file logging rotates
type FileConfig struct {
	FileName   string `json:"filename,omitempty" toml:"filename,omitempty"`
	MaxSize    int    `json:"max-size-mb,omitempty" toml:"max-size-mb,omitempty"`
	MaxBackups int    `json:"max-backups,omitempty" toml:"max-backups,omitempty"`
}

// Logger each instance of logger settings
type Logger struct {
	ShowLogSystemName                                bool
	TimestampFormat                                  string
	InfoHeader, ErrorHeader, DebugHeader, WarnHeader string
	Spacer                                           string
}

// Levels flags for each sub logger type
type Levels struct {
	Info, Debug, Warn, Error bool
}

// SubLogger defines a named logging subsystem with its own levels and output
type SubLogger struct {
	name string
	Levels
	output io.Writer
}

type multiWriter struct {
	writers []io.Writer
	mu      sync.Mutex
}
