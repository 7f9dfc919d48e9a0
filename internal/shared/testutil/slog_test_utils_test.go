package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("frame written", slog.String("source", "Investor.csv"))
		logger.Error("step failed", slog.Int("code", 500))

		require.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("frame written"))
		assert.True(t, handler.ContainsAttr("source", "Investor.csv"))
		assert.True(t, handler.ContainsAttr("code", int64(500)))
		assert.False(t, handler.ContainsAttr("code", 500))
	})

	t.Run("filters by level and message", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
		assert.Len(t, handler.GetRecordsByMessage("msg"), 4)
	})

	t.Run("bound attributes and groups", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		child := logger.With(slog.String("run_id", "abc")).WithGroup("stats")
		child.Info("normalized", slog.Int("missing", 3))
		logger.Info("paths", slog.Group("directories", slog.String("data", "/tmp/data")))

		records := handler.GetRecords()
		require.Len(t, records, 2)
		assert.Equal(t, "abc", records[0].Attrs["run_id"])
		assert.Equal(t, int64(3), records[0].Attrs["stats.missing"])
		assert.Equal(t, "/tmp/data", records[1].Attrs["directories.data"])
		_, leaked := records[1].Attrs["run_id"]
		assert.False(t, leaked)
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("message 1")
		logger.With(slog.String("k", "v")).Info("message 2")
		assert.Equal(t, 2, handler.Count())

		handler.Clear()
		assert.Zero(t, handler.Count())
	})

	t.Run("assertion helpers", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("rules mined", slog.String("component", "mining"))
		logger.Warn("tertile bins collapsed", slog.Int("return_bins", 2))

		AssertLogContains(t, handler, slog.LevelInfo, "rules")
		AssertLogAttr(t, handler, "component", "mining")
		AssertLogAttr(t, handler, "return_bins", int64(2))
		AssertNoErrors(t, handler)
	})

	t.Run("thread safety", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.With(slog.Int("worker", n)).Info("concurrent log")
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, handler.Count())
	})
}
