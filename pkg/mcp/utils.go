package mcp

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// hasArg reports whether the caller supplied name with a non-null value.
func hasArg(request mcp.CallToolRequest, name string) bool {
	v, ok := request.Params.Arguments[name]
	return ok && v != nil
}

func stringArg(request mcp.CallToolRequest, name string) (string, bool) {
	s, ok := request.Params.Arguments[name].(string)
	return s, ok
}

// numberArg accepts JSON numbers. Clients that quote numbers are tolerated.
func numberArg(request mcp.CallToolRequest, name string) (float64, bool) {
	switch v := request.Params.Arguments[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// wholeArg reads a number that must carry no fractional part.
func wholeArg(request mcp.CallToolRequest, name string) (int64, error) {
	f, ok := numberArg(request, name)
	if !ok {
		return 0, fmt.Errorf("'%s' parameter must be a number", name)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("'%s' parameter must be a whole number, got %v", name, f)
	}
	return int64(f), nil
}

// requiredID reads the mandatory "id" argument.
func requiredID(request mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	if !hasArg(request, "id") {
		return 0, mcp.NewToolResultError("'id' parameter is required.")
	}
	id, err := wholeArg(request, "id")
	if err != nil {
		return 0, mcp.NewToolResultError(err.Error())
	}
	return id, nil
}

// jsonResult serializes v as the tool's text result.
func jsonResult(what string, v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize %s to JSON: %v", what, err))
	}
	return mcp.NewToolResultText(string(b))
}
