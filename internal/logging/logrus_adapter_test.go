package logging

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedAdapter(level logrus.Level) (Logger, *bytes.Buffer) {
	logrusLogger := logrus.New()
	var buf bytes.Buffer
	logrusLogger.SetOutput(&buf)
	logrusLogger.SetLevel(level)
	logrusLogger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return NewLogrusAdapterFromLogger(logrusLogger), &buf
}

func TestNewLogrusAdapterWithOutput(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectLevel logrus.Level
		expectJSON  bool
	}{
		{name: "debug text", level: "debug", format: "text", expectLevel: logrus.DebugLevel},
		{name: "info json", level: "info", format: "json", expectLevel: logrus.InfoLevel, expectJSON: true},
		{name: "upper case json", level: "warn", format: "JSON", expectLevel: logrus.WarnLevel, expectJSON: true},
		{name: "invalid level defaults to info", level: "loud", format: "text", expectLevel: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogrusAdapterWithOutput(tt.level, tt.format, &buf)
			adapter, ok := logger.(*LogrusAdapter)
			require.True(t, ok)
			assert.Equal(t, tt.expectLevel, adapter.Logrus().Level)

			_, isJSON := adapter.Logrus().Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.expectJSON, isJSON)

			logger.Warn("written")
			assert.Contains(t, buf.String(), "written")
		})
	}
}

func TestNewLogrusAdapterFromLogger_Nil(t *testing.T) {
	logger := NewLogrusAdapterFromLogger(nil)
	adapter, ok := logger.(*LogrusAdapter)
	require.True(t, ok)
	assert.NotNil(t, adapter.Logrus())
}

func TestLogrusAdapter_LevelFiltering(t *testing.T) {
	logger, buf := newBufferedAdapter(logrus.WarnLevel)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("visible warn", Field{Key: FieldOrganizationID, Value: "org-1"})
	logger.Error("visible error")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible warn")
	assert.Contains(t, out, "organization_id=org-1")
	assert.Contains(t, out, "visible error")
}

func TestLogrusAdapter_ChainedCalls(t *testing.T) {
	logger, buf := newBufferedAdapter(logrus.InfoLevel)

	logger.
		WithField(FieldComponent, "ingest").
		WithFields(Field{Key: FieldTransactionID, Value: "tx-1"}).
		WithError(errors.New("disk full")).
		Error("insert failed")

	out := buf.String()
	assert.Contains(t, out, "insert failed")
	assert.Contains(t, out, "component=ingest")
	assert.Contains(t, out, "transaction_id=tx-1")
	assert.Contains(t, out, "disk full")
}

func TestConvertFields(t *testing.T) {
	fields := convertFields([]Field{
		{Key: "key1", Value: "value1"},
		{Key: "key2", Value: 42},
	})
	assert.Len(t, fields, 2)
	assert.Equal(t, 42, fields["key2"])
	assert.Len(t, convertFields(nil), 0)
}

func TestMockLogger_ChildrenShareEntries(t *testing.T) {
	root := NewMockLogger()
	child := root.WithField(FieldComponent, "dedup").WithError(errors.New("x"))
	child.Warn("duplicate", Field{Key: FieldReason, Value: "duplicate_hash"})

	require.True(t, root.HasEntry("WARN", "duplicate"))
	entry := root.GetEntriesByLevel("WARN")[0]
	assert.EqualError(t, entry.Error, "x")

	v, ok := root.FieldValue("duplicate", FieldComponent)
	require.True(t, ok)
	assert.Equal(t, "dedup", v)

	root.Clear()
	assert.Empty(t, root.GetEntries())
}

func TestMockLogger_Concurrent(t *testing.T) {
	root := NewMockLogger()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			root.WithField("n", 1).Info("tick")
		}()
	}
	wg.Wait()
	assert.Len(t, root.GetEntries(), 20)
}

func TestImplementsInterface(t *testing.T) {
	var _ Logger = (*LogrusAdapter)(nil)
	var _ Logger = (*MockLogger)(nil)
	var _ Logger = NewNopLogger()
}
