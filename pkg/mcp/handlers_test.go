package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pkgdb "github.com/unowned-ai/moodlog/pkg/db"
	"github.com/unowned-ai/moodlog/pkg/moods"
	"github.com/unowned-ai/moodlog/pkg/transfer"
)

func newTestHandle(t *testing.T) *pkgdb.Handle {
	t.Helper()
	h := pkgdb.NewHandle(pkgdb.Config{
		Path: filepath.Join(t.TempDir(), "moodlog.db"),
		WAL:  true,
		Sync: "NORMAL",
	})
	t.Cleanup(func() { h.Close() })
	return h
}

func callTool(t *testing.T, h *pkgdb.Handle, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	for _, def := range toolSet {
		if def.tool.Name != name {
			continue
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		res, err := def.handler(h)(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, res)
		return res
	}
	t.Fatalf("tool %q is not registered", name)
	return nil
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func decodeResult[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &v))
	return v
}

func TestToolNames(t *testing.T) {
	names := ToolNames()
	assert.Contains(t, names, "log_mood")
	assert.Contains(t, names, "import_moods")

	seen := map[string]bool{}
	for _, n := range names {
		assert.False(t, seen[n], "duplicate tool %q", n)
		seen[n] = true
	}
}

func TestPing(t *testing.T) {
	res := callTool(t, newTestHandle(t), "ping", nil)
	assert.Equal(t, "pong_moodlog", resultText(t, res))
}

func TestServerOpensDatabaseOnFirstUse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "moodlog.db")
	srv := NewMoodlogMCPServer(pkgdb.Config{Path: path, WAL: true, Sync: "FULL"})
	t.Cleanup(func() { srv.Close() })

	callTool(t, srv.Handle(), "ping", nil)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "ping must not open the database")

	emotions := decodeResult[[]moods.Emotion](t, callTool(t, srv.Handle(), "list_emotions", nil))
	assert.Len(t, emotions, len(pkgdb.DefaultEmotions))
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLogAndGetMood(t *testing.T) {
	h := newTestHandle(t)

	entry := decodeResult[moods.MoodEntry](t, callTool(t, h, "log_mood", map[string]any{
		"mood":      float64(7),
		"note":      "walked the dog",
		"emotions":  "Happy:positive, Tired",
		"tags":      "outside, dog",
		"energy":    6.6,
		"timestamp": "1705320000000",
		"latitude":  52.52,
		"longitude": 13.405,
		"place":     " Berlin ",
	}))
	assert.Equal(t, 7, entry.Mood)
	require.NotNil(t, entry.Note)
	assert.Equal(t, "walked the dog", *entry.Note)
	assert.Equal(t, int64(1705320000000), entry.Timestamp)
	assert.Equal(t, []moods.Emotion{
		{Name: "Happy", Category: moods.CategoryPositive},
		{Name: "Tired", Category: moods.CategoryNeutral},
	}, entry.Emotions)
	assert.Equal(t, []string{"outside", "dog"}, entry.ContextTags)
	require.NotNil(t, entry.Energy)
	assert.Equal(t, 7, *entry.Energy)
	require.NotNil(t, entry.Location)
	assert.Equal(t, "Berlin", entry.Location.Name)

	got := decodeResult[moods.MoodEntry](t, callTool(t, h, "get_mood", map[string]any{"id": float64(entry.ID)}))
	assert.Equal(t, entry, got)

	res := callTool(t, h, "get_mood", map[string]any{"id": float64(entry.ID + 100)})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not found")
}

func TestLogMood_RejectsBadArguments(t *testing.T) {
	h := newTestHandle(t)
	cases := map[string]map[string]any{
		"missing mood":      {},
		"mood too high":     {"mood": float64(11)},
		"fractional mood":   {"mood": 6.5},
		"unknown category":  {"mood": float64(5), "emotions": "Happy:great"},
		"bad timestamp":     {"mood": float64(5), "timestamp": "yesterday-ish"},
		"half a location":   {"mood": float64(5), "latitude": 10.0},
		"latitude too high": {"mood": float64(5), "latitude": 91.0, "longitude": 0.0},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			res := callTool(t, h, "log_mood", args)
			assert.True(t, res.IsError, resultText(t, res))
		})
	}

	page := decodeResult[moods.Page](t, callTool(t, h, "list_moods", nil))
	assert.Zero(t, page.Total)
}

func TestListMoods(t *testing.T) {
	h := newTestHandle(t)
	for i, ts := range []string{"1000", "2000", "3000"} {
		callTool(t, h, "log_mood", map[string]any{"mood": float64(i + 1), "timestamp": ts})
	}

	page := decodeResult[moods.Page](t, callTool(t, h, "list_moods", map[string]any{"limit": float64(2)}))
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Entries, 2)
	assert.Equal(t, 3, page.Entries[0].Mood)

	inRange := decodeResult[[]moods.MoodEntry](t, callTool(t, h, "list_moods", map[string]any{"from": "1000", "to": "2000"}))
	require.Len(t, inRange, 2)
	assert.Equal(t, int64(2000), inRange[0].Timestamp)

	res := callTool(t, h, "list_moods", map[string]any{"from": "3000", "to": "1000"})
	assert.True(t, res.IsError)
}

func TestUpdateMood(t *testing.T) {
	h := newTestHandle(t)
	entry := decodeResult[moods.MoodEntry](t, callTool(t, h, "log_mood", map[string]any{
		"mood": float64(4), "note": "meh", "energy": float64(3), "emotions": "Sad:negative",
	}))
	id := float64(entry.ID)

	res := callTool(t, h, "update_mood", map[string]any{"id": id})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "No update fields")

	updated := decodeResult[moods.MoodEntry](t, callTool(t, h, "update_mood", map[string]any{
		"id": id, "mood": float64(8), "clear_note": true, "emotions": "",
	}))
	assert.Equal(t, 8, updated.Mood)
	assert.Nil(t, updated.Note)
	assert.Empty(t, updated.Emotions)
	require.NotNil(t, updated.Energy)
	assert.Equal(t, 3, *updated.Energy)

	updated = decodeResult[moods.MoodEntry](t, callTool(t, h, "update_mood", map[string]any{
		"id": id, "clear_energy": true,
	}))
	assert.Nil(t, updated.Energy)

	res = callTool(t, h, "update_mood", map[string]any{"id": id + 50, "mood": float64(1)})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not found")
}

func TestDeleteAndCloneMood(t *testing.T) {
	h := newTestHandle(t)
	entry := decodeResult[moods.MoodEntry](t, callTool(t, h, "log_mood", map[string]any{"mood": float64(6), "tags": "home"}))

	clone := decodeResult[moods.MoodEntry](t, callTool(t, h, "clone_mood", map[string]any{"id": float64(entry.ID), "timestamp": "5000"}))
	assert.NotEqual(t, entry.ID, clone.ID)
	assert.Equal(t, int64(5000), clone.Timestamp)
	assert.Equal(t, []string{"home"}, clone.ContextTags)
	require.NotNil(t, clone.BasedOnEntryID)
	assert.Equal(t, entry.ID, *clone.BasedOnEntryID)

	res := callTool(t, h, "delete_mood", map[string]any{"id": float64(entry.ID)})
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "deleted successfully")

	res = callTool(t, h, "delete_mood", map[string]any{"id": float64(entry.ID)})
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "nothing to delete")

	res = callTool(t, h, "delete_mood", map[string]any{"id": "abc"})
	assert.True(t, res.IsError)
}

func TestMoodStats(t *testing.T) {
	h := newTestHandle(t)
	callTool(t, h, "log_mood", map[string]any{"mood": float64(4), "energy": float64(2)})
	callTool(t, h, "log_mood", map[string]any{"mood": float64(8)})

	stats := decodeResult[statsResult](t, callTool(t, h, "mood_stats", nil))
	assert.Equal(t, 2, stats.Count)
	require.NotNil(t, stats.AverageMood)
	assert.InDelta(t, 6.0, *stats.AverageMood, 1e-9)
	require.NotNil(t, stats.AverageEnergy)
	assert.InDelta(t, 2.0, *stats.AverageEnergy, 1e-9)
	assert.True(t, stats.LoggedToday)
}

func TestEmotionTools(t *testing.T) {
	h := newTestHandle(t)

	added := decodeResult[moods.Emotion](t, callTool(t, h, "add_emotion", map[string]any{"name": "Giddy", "category": "positive"}))
	assert.Equal(t, moods.Emotion{Name: "Giddy", Category: moods.CategoryPositive}, added)

	res := callTool(t, h, "add_emotion", map[string]any{"name": "giddy"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "already exists")

	res = callTool(t, h, "add_emotion", map[string]any{"name": "Odd", "category": "weird"})
	assert.True(t, res.IsError)

	entry := decodeResult[moods.MoodEntry](t, callTool(t, h, "log_mood", map[string]any{"mood": float64(9), "emotions": "Giddy:positive, Calm:positive"}))

	res = callTool(t, h, "recategorize_emotion", map[string]any{"name": "Giddy", "category": "neutral"})
	require.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), "1 entries updated")

	res = callTool(t, h, "rename_emotion", map[string]any{"name": "Giddy", "new_name": "Elated"})
	require.False(t, res.IsError, resultText(t, res))
	got := decodeResult[moods.MoodEntry](t, callTool(t, h, "get_mood", map[string]any{"id": float64(entry.ID)}))
	assert.Contains(t, got.Emotions, moods.Emotion{Name: "Elated", Category: moods.CategoryNeutral})

	res = callTool(t, h, "rename_emotion", map[string]any{"name": "Elated", "new_name": "Calm"})
	assert.True(t, res.IsError)

	res = callTool(t, h, "remove_emotion", map[string]any{"name": "Elated"})
	require.False(t, res.IsError, resultText(t, res))
	got = decodeResult[moods.MoodEntry](t, callTool(t, h, "get_mood", map[string]any{"id": float64(entry.ID)}))
	assert.Equal(t, []moods.Emotion{{Name: "Calm", Category: moods.CategoryPositive}}, got.Emotions)

	res = callTool(t, h, "recategorize_emotion", map[string]any{"name": "Nonexistent", "category": "negative"})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "not found")
}

func TestImportAndExportTools(t *testing.T) {
	h := newTestHandle(t)

	result := decodeResult[transfer.ImportResult](t, callTool(t, h, "import_moods", map[string]any{
		"payload": `[{"timestamp":1705320000000,"mood":6,"emotions":[{"name":"Happy","category":"positive"}],"context":["work"],"energy":5,"notes":null},{"mood":15}]`,
	}))
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, result.Errors, 1)

	res := callTool(t, h, "import_moods", map[string]any{
		"payload": `[{"mood":5,"emotions":["Happy"]},{"mood":"nope"}]`,
		"legacy":  true,
	})
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "nothing was written")

	res = callTool(t, h, "import_moods", map[string]any{"payload": `{"mood":5}`})
	assert.True(t, res.IsError)

	rows := decodeResult[[]transfer.ExportRow](t, callTool(t, h, "export_moods", nil))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1705320000000), rows[0].Timestamp)
	assert.Equal(t, []string{"work"}, rows[0].Context)

	rows = decodeResult[[]transfer.ExportRow](t, callTool(t, h, "export_moods", map[string]any{"from": "0", "to": "1000"}))
	assert.Empty(t, rows)

	res = callTool(t, h, "export_moods", map[string]any{"preset": "90d"})
	assert.True(t, res.IsError)

	schema := decodeResult[map[string]any](t, callTool(t, h, "export_schema", nil))
	assert.Equal(t, "array", schema["type"])
}
