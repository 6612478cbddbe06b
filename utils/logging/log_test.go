// Copyright (C) 2019-2025, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type bufferCloser struct {
	bytes.Buffer
}

func (*bufferCloser) Close() error {
	return nil
}

func TestLog(t *testing.T) {
	log := NewLogger("", NewWrappedCore(Info, Discard, Plain.Encoder()))

	recovered := new(bool)
	panicFunc := func() {
		panic("DON'T PANIC!")
	}
	exitFunc := func() {
		*recovered = true
	}
	log.RecoverAndExit(panicFunc, exitFunc)

	require.True(t, *recovered)
}

func TestLogLevelFiltering(t *testing.T) {
	require := require.New(t)

	buf := &bufferCloser{}
	log := NewLogger("test", NewWrappedCore(Info, buf, JSON.Encoder()))

	log.Debug("hidden")
	require.Zero(buf.Len())

	log.Info("shown", zap.Int("n", 1))
	require.Contains(buf.String(), `"msg":"shown"`)
	require.Contains(buf.String(), `"level":"INFO"`)
	require.Contains(buf.String(), `"logger":"test"`)

	buf.Reset()
	log.SetLevel(Verbo)
	require.True(log.Enabled(Verbo))
	log.Verbo("verbose")
	require.Contains(buf.String(), `"level":"VERBO"`)
}

func TestLogWith(t *testing.T) {
	require := require.New(t)

	buf := &bufferCloser{}
	log := NewLogger("", NewWrappedCore(Info, buf, JSON.Encoder()))
	log.With(zap.String("component", "pool")).Warn("child")
	require.Contains(buf.String(), `"component":"pool"`)
}

func TestLevelStringRoundTrip(t *testing.T) {
	levels := []Level{Off, Fatal, Error, Warn, Info, Trace, Debug, Verbo}
	for _, level := range levels {
		t.Run(level.String(), func(t *testing.T) {
			parsed, err := ToLevel(level.String())
			require.NoError(t, err)
			require.Equal(t, level, parsed)
		})
	}

	_, err := ToLevel("loud")
	require.Error(t, err) //nolint:forbidigo // error is created with fmt.Errorf
}

func TestLevelOrdering(t *testing.T) {
	require := require.New(t)

	require.Less(Verbo, Debug)
	require.Less(Debug, Trace)
	require.Less(Trace, Info)
	require.Less(Info, Warn)
	require.Less(Warn, Error)
	require.Less(Error, Fatal)
	require.Less(Fatal, Off)
	require.Less(Off, Level(zapcore.DebugLevel))
}

func TestFatalDoesNotExit(t *testing.T) {
	require := require.New(t)

	buf := &bufferCloser{}
	log := NewLogger("", NewWrappedCore(Info, buf, JSON.Encoder()))
	log.Fatal("boom")
	require.Contains(buf.String(), `"level":"FATAL"`)

	buf.Reset()
	log.SetLevel(Off)
	log.Fatal("hidden")
	require.Zero(buf.Len())
}

func TestFactory(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	config := DefaultConfig(dir)
	config.DisableWriterDisplaying = true
	factory := NewFactory(config)

	log, err := factory.Make("pool")
	require.NoError(err)

	_, err = factory.Make("pool")
	require.Error(err) //nolint:forbidigo // error is created with fmt.Errorf

	require.Equal([]string{"pool"}, factory.GetLoggerNames())
	require.NoError(factory.SetLogLevel("pool", Info))
	require.NoError(factory.SetDisplayLevel("pool", Off))
	require.Error(factory.SetLogLevel("missing", Info)) //nolint:forbidigo // error is created with fmt.Errorf

	log.Info("written to disk")
	factory.Close()

	contents, err := os.ReadFile(filepath.Join(dir, "pool.log"))
	require.NoError(err)
	require.Contains(string(contents), "written to disk")
}

func TestFactoryWithoutDirectory(t *testing.T) {
	require := require.New(t)

	config := DefaultConfig("")
	config.DisableWriterDisplaying = true
	factory := NewFactory(config)

	log, err := factory.Make("display-only")
	require.NoError(err)
	log.Info("not written")
	factory.Close()

	_, err = os.Stat("display-only.log")
	require.ErrorIs(err, os.ErrNotExist)
}
