package mcp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	pkgdb "github.com/unowned-ai/moodlog/pkg/db"
	"github.com/unowned-ai/moodlog/pkg/moods"
	"github.com/unowned-ai/moodlog/pkg/transfer"
)

type toolDef struct {
	tool    mcp.Tool
	handler func(h *pkgdb.Handle) server.ToolHandlerFunc
}

const timestampHelp = "Milliseconds since the Unix epoch, or an ISO 8601 date/time."

var toolSet = []toolDef{
	{
		tool: mcp.NewTool("ping",
			mcp.WithDescription("Responds with 'pong_moodlog' to check if the Moodlog MCP server is alive."),
		),
		handler: func(*pkgdb.Handle) server.ToolHandlerFunc { return pingHandler },
	},
	{
		tool: mcp.NewTool("log_mood",
			mcp.WithDescription("Records a new mood entry."),
			mcp.WithNumber("mood", mcp.Required(), mcp.Description("Mood from 0 (worst) to 10 (best).")),
			mcp.WithString("note", mcp.Description("Optional free-text note.")),
			mcp.WithString("emotions", mcp.Description("Optional comma-separated emotions, each 'Name' or 'Name:category' (positive, negative, neutral).")),
			mcp.WithString("tags", mcp.Description("Optional comma-separated context tags.")),
			mcp.WithNumber("energy", mcp.Description("Optional energy level, rounded and clamped to 0-10.")),
			mcp.WithString("timestamp", mcp.Description("Optional time of the entry. "+timestampHelp+" Defaults to now.")),
			mcp.WithNumber("latitude", mcp.Description("Optional latitude (-90 to 90). Requires longitude.")),
			mcp.WithNumber("longitude", mcp.Description("Optional longitude (-180 to 180). Requires latitude.")),
			mcp.WithString("place", mcp.Description("Optional name of the location.")),
		),
		handler: logMoodHandler,
	},
	{
		tool: mcp.NewTool("get_mood",
			mcp.WithDescription("Retrieves a mood entry by its id."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Entry id.")),
		),
		handler: getMoodHandler,
	},
	{
		tool: mcp.NewTool("list_moods",
			mcp.WithDescription("Lists mood entries, newest first. Either pages through all entries or returns those between 'from' and 'to' inclusive."),
			mcp.WithNumber("limit", mcp.Description("Page size. Defaults to 20.")),
			mcp.WithNumber("offset", mcp.Description("Entries to skip. Defaults to 0.")),
			mcp.WithString("from", mcp.Description("Optional range start. "+timestampHelp)),
			mcp.WithString("to", mcp.Description("Optional range end. "+timestampHelp+" Defaults to now.")),
		),
		handler: listMoodsHandler,
	},
	{
		tool: mcp.NewTool("update_mood",
			mcp.WithDescription("Updates fields of an existing mood entry. Only the fields provided are changed."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Entry id.")),
			mcp.WithNumber("mood", mcp.Description("New mood from 0 to 10.")),
			mcp.WithString("note", mcp.Description("New note.")),
			mcp.WithBoolean("clear_note", mcp.Description("Remove the note.")),
			mcp.WithString("emotions", mcp.Description("Replacement comma-separated emotions ('Name' or 'Name:category'). An empty string clears them.")),
			mcp.WithString("tags", mcp.Description("Replacement comma-separated context tags. An empty string clears them.")),
			mcp.WithNumber("energy", mcp.Description("New energy level.")),
			mcp.WithBoolean("clear_energy", mcp.Description("Remove the energy level.")),
			mcp.WithString("timestamp", mcp.Description("New time of the entry. "+timestampHelp)),
		),
		handler: updateMoodHandler,
	},
	{
		tool: mcp.NewTool("delete_mood",
			mcp.WithDescription("Deletes a mood entry by its id."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Entry id.")),
		),
		handler: deleteMoodHandler,
	},
	{
		tool: mcp.NewTool("clone_mood",
			mcp.WithDescription("Records a new entry copying an existing one. The copy remembers which entry it was based on."),
			mcp.WithNumber("id", mcp.Required(), mcp.Description("Id of the entry to copy.")),
			mcp.WithString("timestamp", mcp.Description("Optional time of the copy. "+timestampHelp+" Defaults to now.")),
		),
		handler: cloneMoodHandler,
	},
	{
		tool: mcp.NewTool("mood_stats",
			mcp.WithDescription("Summarizes all entries: count, average mood and energy, first and last timestamps, and whether anything was logged today."),
		),
		handler: moodStatsHandler,
	},
	{
		tool: mcp.NewTool("list_emotions",
			mcp.WithDescription("Lists the emotion catalog."),
		),
		handler: listEmotionsHandler,
	},
	{
		tool: mcp.NewTool("add_emotion",
			mcp.WithDescription("Adds an emotion to the catalog."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Emotion name. Names are unique regardless of case.")),
			mcp.WithString("category", mcp.Enum("positive", "negative", "neutral"), mcp.Description("Category. Defaults to neutral.")),
		),
		handler: addEmotionHandler,
	},
	{
		tool: mcp.NewTool("recategorize_emotion",
			mcp.WithDescription("Changes the category of an emotion in the catalog and in every entry that uses it."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Emotion name.")),
			mcp.WithString("category", mcp.Required(), mcp.Enum("positive", "negative", "neutral"), mcp.Description("New category.")),
		),
		handler: recategorizeEmotionHandler,
	},
	{
		tool: mcp.NewTool("rename_emotion",
			mcp.WithDescription("Renames an emotion in the catalog and in every entry that uses it."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Current emotion name.")),
			mcp.WithString("new_name", mcp.Required(), mcp.Description("New emotion name.")),
			mcp.WithString("category", mcp.Enum("positive", "negative", "neutral"), mcp.Description("Optional new category. Defaults to the current one.")),
		),
		handler: renameEmotionHandler,
	},
	{
		tool: mcp.NewTool("remove_emotion",
			mcp.WithDescription("Removes an emotion from the catalog and from every entry that uses it."),
			mcp.WithString("name", mcp.Required(), mcp.Description("Emotion name.")),
		),
		handler: removeEmotionHandler,
	},
	{
		tool: mcp.NewTool("export_moods",
			mcp.WithDescription("Exports entries as a JSON array in the moodlog export format."),
			mcp.WithString("preset", mcp.Enum("7d", "14d", "30d"), mcp.Description("Optional rolling window ending now.")),
			mcp.WithString("from", mcp.Description("Optional range start. "+timestampHelp)),
			mcp.WithString("to", mcp.Description("Optional range end. "+timestampHelp+" Defaults to now.")),
		),
		handler: exportMoodsHandler,
	},
	{
		tool: mcp.NewTool("export_schema",
			mcp.WithDescription("Returns the JSON Schema of the export format."),
		),
		handler: func(*pkgdb.Handle) server.ToolHandlerFunc { return exportSchemaHandler },
	},
	{
		tool: mcp.NewTool("import_moods",
			mcp.WithDescription("Imports entries from a JSON array. Current-format rows with a bad mood are skipped and reported; a legacy import stops at the first bad row and writes nothing."),
			mcp.WithString("payload", mcp.Required(), mcp.Description("The JSON array to import.")),
			mcp.WithBoolean("legacy", mcp.Description("Treat the payload as a legacy export (bare emotion names, date strings).")),
		),
		handler: importMoodsHandler,
	},
}

// RegisterTools registers every moodlog tool on s. Tools open h on first use.
func RegisterTools(s *server.MCPServer, h *pkgdb.Handle) {
	for _, t := range toolSet {
		s.AddTool(t.tool, t.handler(h))
	}
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_moodlog"), nil
}

// openDB resolves the shared connection or produces the tool error to return.
func openDB(ctx context.Context, h *pkgdb.Handle) (*sql.DB, *mcp.CallToolResult) {
	db, err := h.DB(ctx)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("Failed to open database: %v", err))
	}
	return db, nil
}

func timestampArg(request mcp.CallToolRequest, name string) (int64, *mcp.CallToolResult) {
	ts, ok := moods.ParseTimestampStrict(request.Params.Arguments[name])
	if !ok {
		return 0, mcp.NewToolResultError(fmt.Sprintf("'%s' parameter is not a valid timestamp: %v", name, request.Params.Arguments[name]))
	}
	return ts, nil
}

func categoryArg(request mcp.CallToolRequest, name string) (moods.Category, *mcp.CallToolResult) {
	raw, _ := stringArg(request, name)
	c, ok := moods.ParseCategory(raw)
	if !ok {
		return "", mcp.NewToolResultError(fmt.Sprintf("'%s' must be one of positive, negative or neutral.", name))
	}
	return c, nil
}

func requiredName(request mcp.CallToolRequest, name string) (string, *mcp.CallToolResult) {
	s, ok := stringArg(request, name)
	if !ok || strings.TrimSpace(s) == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("'%s' parameter is required and must be a non-empty string.", name))
	}
	return strings.TrimSpace(s), nil
}

func logMoodHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !hasArg(request, "mood") {
			return mcp.NewToolResultError("'mood' parameter is required."), nil
		}
		mood, err := wholeArg(request, "mood")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		in := moods.EntryInput{Mood: int(mood)}

		if note, ok := stringArg(request, "note"); ok {
			in.Note = &note
		}
		if list, ok := stringArg(request, "emotions"); ok {
			if in.Emotions, err = moods.ParseEmotionList(list); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Invalid emotions: %v", err)), nil
			}
		}
		if list, ok := stringArg(request, "tags"); ok {
			in.ContextTags = moods.ParseTagList(list)
		}
		if hasArg(request, "energy") {
			energy, ok := numberArg(request, "energy")
			if !ok {
				return mcp.NewToolResultError("'energy' parameter must be a number."), nil
			}
			in.Energy = &energy
		}
		if hasArg(request, "timestamp") {
			ts, errResult := timestampArg(request, "timestamp")
			if errResult != nil {
				return errResult, nil
			}
			in.Timestamp = &ts
		}
		if hasArg(request, "latitude") || hasArg(request, "longitude") {
			lat, latOk := numberArg(request, "latitude")
			lon, lonOk := numberArg(request, "longitude")
			if !latOk || !lonOk {
				return mcp.NewToolResultError("'latitude' and 'longitude' must both be numbers."), nil
			}
			place, _ := stringArg(request, "place")
			in.Location = &moods.Location{Latitude: lat, Longitude: lon, Name: strings.TrimSpace(place)}
		}

		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		entry, err := moods.InsertEntry(ctx, db, in)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to log mood: %v", err)), nil
		}
		return jsonResult("entry", entry), nil
	}
}

func getMoodHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := requiredID(request)
		if errResult != nil {
			return errResult, nil
		}
		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		entry, err := moods.GetEntry(ctx, db, id)
		if errors.Is(err, moods.ErrEntryNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Mood entry %d not found.", id)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error retrieving mood entry %d: %v", id, err)), nil
		}
		return jsonResult("entry", entry), nil
	}
}

func listMoodsHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ranged := hasArg(request, "from") || hasArg(request, "to")

		var start, end int64
		if ranged {
			end = moods.ParseTimestamp(nil)
			if hasArg(request, "from") {
				var errResult *mcp.CallToolResult
				if start, errResult = timestampArg(request, "from"); errResult != nil {
					return errResult, nil
				}
			}
			if hasArg(request, "to") {
				var errResult *mcp.CallToolResult
				if end, errResult = timestampArg(request, "to"); errResult != nil {
					return errResult, nil
				}
			}
			if end < start {
				return mcp.NewToolResultError("'to' must not be before 'from'."), nil
			}
		}

		limit, offset := int64(moods.DefaultPageSize), int64(0)
		if hasArg(request, "limit") {
			var err error
			if limit, err = wholeArg(request, "limit"); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		if hasArg(request, "offset") {
			var err error
			if offset, err = wholeArg(request, "offset"); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}

		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		if ranged {
			entries, err := moods.ListEntriesInRange(ctx, db, start, end)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to list mood entries: %v", err)), nil
			}
			return jsonResult("entries", entries), nil
		}
		page, err := moods.ListEntriesPage(ctx, db, int(limit), int(offset))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list mood entries: %v", err)), nil
		}
		return jsonResult("entries", page), nil
	}
}

func updateMoodHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := requiredID(request)
		if errResult != nil {
			return errResult, nil
		}

		var patch moods.EntryPatch
		if hasArg(request, "mood") {
			mood, err := wholeArg(request, "mood")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			patch.Mood = moods.Some(int(mood))
		}
		if note, ok := stringArg(request, "note"); ok {
			patch.Note = moods.Some(&note)
		}
		if clearNote, _ := request.Params.Arguments["clear_note"].(bool); clearNote {
			patch.Note = moods.Null[string]()
		}
		if list, ok := stringArg(request, "emotions"); ok {
			emotions, err := moods.ParseEmotionList(list)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Invalid emotions: %v", err)), nil
			}
			patch.Emotions = moods.Some(emotions)
		}
		if list, ok := stringArg(request, "tags"); ok {
			patch.ContextTags = moods.Some(moods.ParseTagList(list))
		}
		if hasArg(request, "energy") {
			energy, ok := numberArg(request, "energy")
			if !ok {
				return mcp.NewToolResultError("'energy' parameter must be a number."), nil
			}
			patch.Energy = moods.Some(&energy)
		}
		if clearEnergy, _ := request.Params.Arguments["clear_energy"].(bool); clearEnergy {
			patch.Energy = moods.Null[float64]()
		}
		if hasArg(request, "timestamp") {
			ts, errResult := timestampArg(request, "timestamp")
			if errResult != nil {
				return errResult, nil
			}
			patch.Timestamp = moods.Some(ts)
		}

		if patch.Empty() {
			return mcp.NewToolResultError("No update fields provided (use mood, note, clear_note, emotions, tags, energy, clear_energy or timestamp)."), nil
		}

		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		entry, err := moods.UpdateEntry(ctx, db, id, patch)
		if errors.Is(err, moods.ErrEntryNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Mood entry %d not found.", id)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to update mood entry %d: %v", id, err)), nil
		}
		return jsonResult("updated entry", entry), nil
	}
}

func deleteMoodHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := requiredID(request)
		if errResult != nil {
			return errResult, nil
		}
		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		n, err := moods.DeleteEntry(ctx, db, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete mood entry %d: %v", id, err)), nil
		}
		if n == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("Mood entry %d not found, nothing to delete.", id)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Mood entry %d deleted successfully.", id)), nil
	}
}

func cloneMoodHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := requiredID(request)
		if errResult != nil {
			return errResult, nil
		}
		var ts *int64
		if hasArg(request, "timestamp") {
			parsed, errResult := timestampArg(request, "timestamp")
			if errResult != nil {
				return errResult, nil
			}
			ts = &parsed
		}
		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		entry, err := moods.CloneEntry(ctx, db, id, ts)
		if errors.Is(err, moods.ErrEntryNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Mood entry %d not found.", id)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to clone mood entry %d: %v", id, err)), nil
		}
		return jsonResult("entry", entry), nil
	}
}

type statsResult struct {
	moods.Stats
	LoggedToday bool `json:"loggedToday"`
}

func moodStatsHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		stats, err := moods.GetStats(ctx, db)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to compute mood stats: %v", err)), nil
		}
		today, err := moods.LoggedToday(ctx, db)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to check today's entries: %v", err)), nil
		}
		return jsonResult("stats", statsResult{Stats: stats, LoggedToday: today}), nil
	}
}

func listEmotionsHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		records, err := moods.ListEmotions(ctx, db)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list emotions: %v", err)), nil
		}
		emotions := make([]moods.Emotion, 0, len(records))
		for _, r := range records {
			emotions = append(emotions, r.Emotion())
		}
		return jsonResult("emotions", emotions), nil
	}
}

func addEmotionHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, errResult := requiredName(request, "name")
		if errResult != nil {
			return errResult, nil
		}
		category := moods.CategoryNeutral
		if hasArg(request, "category") {
			if category, errResult = categoryArg(request, "category"); errResult != nil {
				return errResult, nil
			}
		}
		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		record, err := moods.AddEmotion(ctx, db, moods.Emotion{Name: name, Category: category})
		if errors.Is(err, moods.ErrDuplicateEmotion) {
			return mcp.NewToolResultError(fmt.Sprintf("Emotion '%s' already exists.", name)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to add emotion '%s': %v", name, err)), nil
		}
		return jsonResult("emotion", record.Emotion()), nil
	}
}

func recategorizeEmotionHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, errResult := requiredName(request, "name")
		if errResult != nil {
			return errResult, nil
		}
		category, errResult := categoryArg(request, "category")
		if errResult != nil {
			return errResult, nil
		}
		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		n, err := moods.RecategorizeEverywhere(ctx, db, name, category)
		if errors.Is(err, moods.ErrEmotionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Emotion '%s' not found.", name)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to recategorize emotion '%s': %v", name, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Emotion '%s' is now %s (%d entries updated).", name, category, n)), nil
	}
}

func renameEmotionHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, errResult := requiredName(request, "name")
		if errResult != nil {
			return errResult, nil
		}
		newName, errResult := requiredName(request, "new_name")
		if errResult != nil {
			return errResult, nil
		}
		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}

		target := moods.Emotion{Name: newName, Category: moods.CategoryNeutral}
		if hasArg(request, "category") {
			if target.Category, errResult = categoryArg(request, "category"); errResult != nil {
				return errResult, nil
			}
		} else if current, err := moods.GetEmotion(ctx, db, name); err == nil {
			target.Category = current.Category
		} else if !errors.Is(err, moods.ErrEmotionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Error retrieving emotion '%s': %v", name, err)), nil
		}

		n, err := moods.RenameEverywhere(ctx, db, name, target)
		if errors.Is(err, moods.ErrEmotionNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("Emotion '%s' not found.", name)), nil
		}
		if errors.Is(err, moods.ErrDuplicateEmotion) {
			return mcp.NewToolResultError(fmt.Sprintf("Emotion '%s' already exists.", newName)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to rename emotion '%s': %v", name, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Emotion '%s' renamed to '%s' (%d entries updated).", name, newName, n)), nil
	}
}

func removeEmotionHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, errResult := requiredName(request, "name")
		if errResult != nil {
			return errResult, nil
		}
		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		n, err := moods.RemoveEverywhere(ctx, db, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to remove emotion '%s': %v", name, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Emotion '%s' removed (%d entries updated).", name, n)), nil
	}
}

func exportMoodsHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var r *transfer.Range
		if preset, ok := stringArg(request, "preset"); ok && preset != "" {
			p, err := transfer.ParsePreset(preset)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			r = transfer.PresetRange(p)
		} else if hasArg(request, "from") || hasArg(request, "to") {
			r = &transfer.Range{End: moods.ParseTimestamp(nil)}
			if hasArg(request, "from") {
				var errResult *mcp.CallToolResult
				if r.Start, errResult = timestampArg(request, "from"); errResult != nil {
					return errResult, nil
				}
			}
			if hasArg(request, "to") {
				var errResult *mcp.CallToolResult
				if r.End, errResult = timestampArg(request, "to"); errResult != nil {
					return errResult, nil
				}
			}
		}

		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		payload, err := transfer.ExportJSON(ctx, db, r)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to export moods: %v", err)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}

func exportSchemaHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	schema, err := transfer.ExportSchema()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to build export schema: %v", err)), nil
	}
	return mcp.NewToolResultText(string(schema)), nil
}

func importMoodsHandler(h *pkgdb.Handle) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, ok := stringArg(request, "payload")
		if !ok || strings.TrimSpace(payload) == "" {
			return mcp.NewToolResultError("'payload' parameter is required and must be a JSON array."), nil
		}
		legacy, _ := request.Params.Arguments["legacy"].(bool)

		db, errResult := openDB(ctx, h)
		if errResult != nil {
			return errResult, nil
		}
		importer := transfer.ImportCurrent
		if legacy {
			importer = transfer.ImportLegacy
		}
		res, err := importer(ctx, db, []byte(payload))
		if err != nil {
			var rowErr *transfer.RowDefect
			if errors.As(err, &rowErr) {
				return mcp.NewToolResultError(fmt.Sprintf("Import aborted, nothing was written: %v", rowErr)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("Failed to import moods: %v", err)), nil
		}
		return jsonResult("import result", res), nil
	}
}
