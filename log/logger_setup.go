package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/lumberjack"
)

var (
	errUnhandledOutputWriter = errors.New("unhandled output writer")
	errFileNameUnset         = errors.New("file output requested but no filename set")
	errSubLoggerNotFound     = errors.New("sub logger not found")
)

func init() {
	Global = registerNewSubLogger("LOG")
	BackTester = registerNewSubLogger("BACKTESTER")
	Setup = registerNewSubLogger("SETUP")
	Strategy = registerNewSubLogger("STRATEGY")
	Exchange = registerNewSubLogger("EXCHANGE")
	Portfolio = registerNewSubLogger("PORTFOLIO")
	Data = registerNewSubLogger("DATA")
	Report = registerNewSubLogger("REPORT")
	Journal = registerNewSubLogger("JOURNAL")
	if err := SetupGlobalLogger(globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "unable to set up default logger: %v\n", err)
	}
}

// GenDefaultSettings return struct with known sane/working logger settings
func GenDefaultSettings() *Config {
	t := true
	f := false
	return &Config{
		Enabled: &t,
		SubLoggerConfig: SubLoggerConfig{
			Level:  "INFO|WARN|DEBUG|ERROR",
			Output: "console",
		},
		LoggerFileConfig: &FileConfig{
			FileName:   "log.txt",
			MaxSize:    DefaultMaxFileSize,
			MaxBackups: DefaultMaxBackups,
		},
		AdvancedSettings: AdvancedSettings{
			ShowLogSystemName: &f,
			Spacer:            spacer,
			TimeStampFormat:   timestampFormat,
			Headers: Headers{
				Info:  "[INFO]",
				Warn:  "[WARN]",
				Debug: "[DEBUG]",
				Error: "[ERROR]",
			},
		},
	}
}

// SetupGlobalLogger applies the config to the package logger and every
// registered sub logger
func SetupGlobalLogger(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", errSubLoggerNotFound)
	}
	mu.Lock()
	defer mu.Unlock()

	globalConfig = cfg
	logger = Logger{
		TimestampFormat: cfg.AdvancedSettings.TimeStampFormat,
		Spacer:          cfg.AdvancedSettings.Spacer,
		InfoHeader:      cfg.AdvancedSettings.Headers.Info,
		WarnHeader:      cfg.AdvancedSettings.Headers.Warn,
		DebugHeader:     cfg.AdvancedSettings.Headers.Debug,
		ErrorHeader:     cfg.AdvancedSettings.Headers.Error,
	}
	if cfg.AdvancedSettings.ShowLogSystemName != nil {
		logger.ShowLogSystemName = *cfg.AdvancedSettings.ShowLogSystemName
	}

	defaultOutput, err := getWriters(cfg.Output, cfg.LoggerFileConfig)
	if err != nil {
		return err
	}
	for _, sl := range subLoggers {
		sl.Levels = splitLevel(cfg.Level)
		sl.output = defaultOutput
	}
	for i := range cfg.SubLoggers {
		sl, ok := subLoggers[strings.ToUpper(cfg.SubLoggers[i].Name)]
		if !ok {
			return fmt.Errorf("%w: %s", errSubLoggerNotFound, cfg.SubLoggers[i].Name)
		}
		output, err := getWriters(cfg.SubLoggers[i].Output, cfg.LoggerFileConfig)
		if err != nil {
			return err
		}
		sl.Levels = splitLevel(cfg.SubLoggers[i].Level)
		sl.output = output
	}
	return nil
}

// SetOutput redirects every sub logger to w, used by tests and the CLI's
// quiet mode
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	for _, sl := range subLoggers {
		sl.output = w
	}
}

func registerNewSubLogger(name string) *SubLogger {
	sl := &SubLogger{
		name:   strings.ToUpper(name),
		output: os.Stdout,
		Levels: splitLevel("INFO|WARN|DEBUG|ERROR"),
	}
	subLoggers[sl.name] = sl
	return sl
}

// splitLevel splits a pipe separated level string into Levels flags
func splitLevel(level string) (l Levels) {
	for _, v := range strings.Split(level, "|") {
		switch strings.ToUpper(strings.TrimSpace(v)) {
		case "DEBUG":
			l.Debug = true
		case "INFO":
			l.Info = true
		case "WARN":
			l.Warn = true
		case "ERROR":
			l.Error = true
		}
	}
	return
}

// getWriters returns a writer for each pipe separated output name
func getWriters(output string, fileCfg *FileConfig) (io.Writer, error) {
	mw := &multiWriter{}
	for _, name := range strings.Split(output, "|") {
		var w io.Writer
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "", "console", "stdout":
			w = os.Stdout
		case "stderr":
			w = os.Stderr
		case "file":
			if fileCfg == nil || fileCfg.FileName == "" {
				return nil, errFileNameUnset
			}
			w = &lumberjack.Logger{
				Filename:   filepath.Clean(fileCfg.FileName),
				MaxSize:    fileCfg.MaxSize,
				MaxBackups: fileCfg.MaxBackups,
			}
		case "none", "discard":
			w = io.Discard
		default:
			return nil, fmt.Errorf("%w: %s", errUnhandledOutputWriter, name)
		}
		if err := mw.Add(w); err != nil {
			return nil, err
		}
	}
	return mw, nil
}
