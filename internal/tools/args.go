package tools

import (
	"fmt"
	"strings"

	"github.com/Sternrassler/appstore-connect-mcp/pkg/apperr"
	"github.com/Sternrassler/appstore-connect-mcp/pkg/jsonapi"
	"github.com/mark3labs/mcp-go/mcp"
)

// requiredString returns a non-empty string argument or a validation error.
func requiredString(req mcp.CallToolRequest, key string) (string, error) {
	v := strings.TrimSpace(req.GetString(key, ""))
	if v == "" {
		return "", apperr.Validation(fmt.Sprintf("%s is required", key), "",
			map[string]any{"missing_field": key})
	}
	return v, nil
}

// stringSlice reads a list of strings. A single string is accepted as a one-element list.
func stringSlice(req mcp.CallToolRequest, key string) []string {
	switch v := req.GetArguments()[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}

// stringSliceOr is stringSlice with a default applied only when key is absent.
func stringSliceOr(req mcp.CallToolRequest, key string, def []string) []string {
	if _, ok := req.GetArguments()[key]; !ok {
		return def
	}
	return stringSlice(req, key)
}

// intSlice reads a list of integers.
func intSlice(req mcp.CallToolRequest, key string) []int {
	list, ok := req.GetArguments()[key].([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(list))
	for _, item := range list {
		if f, ok := jsonapi.ToFloat(item); ok {
			out = append(out, int(f))
		}
	}
	return out
}

// optionalFloat returns a pointer to a numeric argument, or nil when absent.
func optionalFloat(req mcp.CallToolRequest, key string) *float64 {
	f, ok := jsonapi.ToFloat(req.GetArguments()[key])
	if !ok {
		return nil
	}
	return &f
}

// objectArg reads an object argument.
func objectArg(req mcp.CallToolRequest, key string) map[string]any {
	m, _ := req.GetArguments()[key].(map[string]any)
	return m
}

// Reusable schema options.
var (
	stringItems  = mcp.Items(map[string]any{"type": "string"})
	integerItems = mcp.Items(map[string]any{"type": "integer"})
)

func includeParam() mcp.ToolOption {
	return mcp.WithArray("include", mcp.Description("Related resources to include"), stringItems)
}

func appIDParam() mcp.ToolOption {
	return mcp.WithString("app_id", mcp.Description("App ID (optional, defaults to APP_STORE_APP_ID)"))
}
