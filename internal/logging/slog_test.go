package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		rec := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		out = append(out, rec)
	}
	return out
}

func TestSlogLogger_JSONRecords(t *testing.T) {
	var buf bytes.Buffer
	log := newSlog(&buf, true, true)
	ctx := context.Background()

	log.Debug(ctx, "session restored", "account_id", "2")
	log.Info(ctx, "post published", "post_id", "p4")
	log.Warn(ctx, "acknowledgement timed out", "kind", "like")
	log.Error(ctx, "rollback failed", "post_id", "p1")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 4)

	want := []struct{ level, msg, key, val string }{
		{"DEBUG", "session restored", "account_id", "2"},
		{"INFO", "post published", "post_id", "p4"},
		{"WARN", "acknowledgement timed out", "kind", "like"},
		{"ERROR", "rollback failed", "post_id", "p1"},
	}
	for i, w := range want {
		assert.Equal(t, w.level, recs[i]["level"])
		assert.Equal(t, w.msg, recs[i]["msg"])
		assert.Equal(t, w.val, recs[i][w.key])
	}
}

func TestSlogLogger_InfoLevelDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := newSlog(&buf, true, false)

	log.Debug(context.Background(), "noisy")
	assert.Zero(t, buf.Len())

	log.Info(context.Background(), "kept")
	assert.Len(t, decodeLines(t, &buf), 1)
}

func TestSlogLogger_WithIsScoped(t *testing.T) {
	var buf bytes.Buffer
	root := newSlog(&buf, false, false)

	engine := root.With("module", "interactions")
	engine.Info(context.Background(), "liked", "post_id", "p2")
	root.Info(context.Background(), "plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "module=interactions")
	assert.Contains(t, lines[0], "post_id=p2")
	assert.NotContains(t, lines[1], "module=", "parent logger is unchanged")
}
