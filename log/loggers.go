package log

import (
	"fmt"
	"strings"
	"time"
)

// Info takes a pointer subLogger struct and string and writes it
func Info(sl *SubLogger, data string) {
	mu.RLock()
	defer mu.RUnlock()
	sl.stage(logger.InfoHeader, sl.enabled().Info, func() string { return data })
}

// Infoln takes a pointer subLogger struct and interface and writes it
func Infoln(sl *SubLogger, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.stage(logger.InfoHeader, sl.enabled().Info, func() string { return fmt.Sprint(v...) })
}

// Infof takes a pointer subLogger struct, string and interface formats and writes it
func Infof(sl *SubLogger, data string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.stage(logger.InfoHeader, sl.enabled().Info, func() string { return fmt.Sprintf(data, v...) })
}

// Debug takes a pointer subLogger struct and string and writes it
func Debug(sl *SubLogger, data string) {
	mu.RLock()
	defer mu.RUnlock()
	sl.stage(logger.DebugHeader, sl.enabled().Debug, func() string { return data })
}

// Debugln takes a pointer subLogger struct and interface and writes it
func Debugln(sl *SubLogger, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.stage(logger.DebugHeader, sl.enabled().Debug, func() string { return fmt.Sprint(v...) })
}

// Debugf takes a pointer subLogger struct, string and interface formats and writes it
func Debugf(sl *SubLogger, data string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.stage(logger.DebugHeader, sl.enabled().Debug, func() string { return fmt.Sprintf(data, v...) })
}

// Warn takes a pointer subLogger struct and string and writes it
func Warn(sl *SubLogger, data string) {
	mu.RLock()
	defer mu.RUnlock()
	sl.stage(logger.WarnHeader, sl.enabled().Warn, func() string { return data })
}

// Warnln takes a pointer subLogger struct and interface and writes it
func Warnln(sl *SubLogger, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.stage(logger.WarnHeader, sl.enabled().Warn, func() string { return fmt.Sprint(v...) })
}

// Warnf takes a pointer subLogger struct, string and interface formats and writes it
func Warnf(sl *SubLogger, data string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.stage(logger.WarnHeader, sl.enabled().Warn, func() string { return fmt.Sprintf(data, v...) })
}

// Error takes a pointer subLogger struct and string and writes it
func Error(sl *SubLogger, data string) {
	mu.RLock()
	defer mu.RUnlock()
	sl.stage(logger.ErrorHeader, sl.enabled().Error, func() string { return data })
}

// Errorln takes a pointer subLogger struct and interface and writes it
func Errorln(sl *SubLogger, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.stage(logger.ErrorHeader, sl.enabled().Error, func() string { return fmt.Sprint(v...) })
}

// Errorf takes a pointer subLogger struct, string and interface formats and writes it
func Errorf(sl *SubLogger, data string, v ...any) {
	mu.RLock()
	defer mu.RUnlock()
	sl.stage(logger.ErrorHeader, sl.enabled().Error, func() string { return fmt.Sprintf(data, v...) })
}

func (sl *SubLogger) enabled() Levels {
	if sl == nil || globalConfig.Enabled == nil || !*globalConfig.Enabled {
		return Levels{}
	}
	return sl.Levels
}

// stage formats and writes a log line. The message is only built when the
// level is enabled
func (sl *SubLogger) stage(header string, enabled bool, msg func() string) {
	if !enabled || sl.output == nil {
		return
	}
	var b strings.Builder
	b.WriteString(header)
	if logger.TimestampFormat != "" {
		b.WriteString(time.Now().Format(logger.TimestampFormat))
	}
	if logger.ShowLogSystemName {
		b.WriteString(logger.Spacer)
		b.WriteString(sl.name)
	}
	b.WriteString(logger.Spacer)
	b.WriteString(msg())
	b.WriteByte('\n')
	_, _ = sl.output.Write([]byte(b.String()))
}
