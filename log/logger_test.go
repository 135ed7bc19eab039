package log

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLevel(t *testing.T) {
	t.Parallel()
	l := splitLevel("INFO|WARN|DEBUG|ERROR")
	assert.Equal(t, Levels{Info: true, Warn: true, Debug: true, Error: true}, l)

	l = splitLevel("warn| error")
	assert.Equal(t, Levels{Warn: true, Error: true}, l)

	l = splitLevel("")
	assert.Equal(t, Levels{}, l)
}

func TestGetWriters(t *testing.T) {
	t.Parallel()
	w, err := getWriters("console|stderr", nil)
	require.NoError(t, err)
	mw, ok := w.(*multiWriter)
	require.True(t, ok)
	assert.Len(t, mw.writers, 2)

	_, err = getWriters("carrier-pigeon", nil)
	assert.ErrorIs(t, err, errUnhandledOutputWriter)

	_, err = getWriters("file", nil)
	assert.ErrorIs(t, err, errFileNameUnset)

	_, err = getWriters("stdout|console", nil)
	assert.ErrorIs(t, err, errWriterAlreadyLoaded)

	w, err = getWriters("file", &FileConfig{FileName: filepath.Join(t.TempDir(), "bt.log"), MaxSize: 1})
	require.NoError(t, err)
	assert.NotNil(t, w)
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()
	var a, b bytes.Buffer
	mw, err := MultiWriter(&a, &b)
	require.NoError(t, err)

	n, err := mw.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", a.String())
	assert.Equal(t, "hello", b.String())

	err = mw.Add(&a)
	assert.True(t, errors.Is(err, errWriterAlreadyLoaded))

	mw.Remove(&a)
	_, err = mw.Write([]byte("!"))
	require.NoError(t, err)
	assert.Equal(t, "hello", a.String())
	assert.Equal(t, "hello!", b.String())
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) - 1, nil }

func TestMultiWriterShortWrite(t *testing.T) {
	t.Parallel()
	mw, err := MultiWriter(shortWriter{})
	require.NoError(t, err)
	_, err = mw.Write([]byte("abc"))
	assert.ErrorIs(t, err, io.ErrShortWrite)
}

// TestLoggerOutput mutates package state so it does not run in parallel
func TestLoggerOutput(t *testing.T) {
	cfg := GenDefaultSettings()
	show := true
	cfg.AdvancedSettings.ShowLogSystemName = &show
	cfg.AdvancedSettings.TimeStampFormat = ""
	cfg.Level = "INFO|ERROR"
	require.NoError(t, SetupGlobalLogger(cfg))
	t.Cleanup(func() {
		_ = SetupGlobalLogger(GenDefaultSettings())
	})

	var buf bytes.Buffer
	SetOutput(&buf)

	Infof(BackTester, "step %d", 3)
	Debugf(BackTester, "hidden %d", 4)
	Errorln(Strategy, "boom")

	out := buf.String()
	assert.Contains(t, out, "[INFO] | BACKTESTER | step 3\n")
	assert.Contains(t, out, "[ERROR] | STRATEGY | boom\n")
	assert.False(t, strings.Contains(out, "hidden"))

	disabled := false
	cfg.Enabled = &disabled
	require.NoError(t, SetupGlobalLogger(cfg))
	buf.Reset()
	SetOutput(&buf)
	Info(Global, "nothing")
	assert.Empty(t, buf.String())
}

func TestSetupGlobalLoggerSubLoggers(t *testing.T) {
	cfg := GenDefaultSettings()
	cfg.SubLoggers = []SubLoggerConfig{{Name: "strategy", Level: "ERROR", Output: "stderr"}}
	require.NoError(t, SetupGlobalLogger(cfg))
	t.Cleanup(func() {
		_ = SetupGlobalLogger(GenDefaultSettings())
	})
	assert.Equal(t, Levels{Error: true}, Strategy.Levels)

	cfg.SubLoggers = []SubLoggerConfig{{Name: "nope", Level: "ERROR"}}
	assert.ErrorIs(t, SetupGlobalLogger(cfg), errSubLoggerNotFound)

	cfg.SubLoggers = nil
	cfg.Output = "file"
	cfg.LoggerFileConfig = &FileConfig{FileName: filepath.Join(t.TempDir(), "out.log")}
	require.NoError(t, SetupGlobalLogger(cfg))
	Info(Global, "to file")
	_, err := os.Stat(cfg.LoggerFileConfig.FileName)
	assert.NoError(t, err)
}
