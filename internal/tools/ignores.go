package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/syncmcp/internal/format"
	"github.com/flemzord/syncmcp/internal/syncthing"
)

func (b *Bundle) getIgnores() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_get_ignores",
		"Get the .stignore patterns for a folder.",
		append(readOnlyAnnotations("Get Folder Ignore Patterns"),
			folderIDOption(), instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")
		concise := boolArg(req, "concise", true)

		var ignores syncthing.Ignores
		if err := client.GetInto(ctx, "/rest/db/ignores",
			map[string]string{"folder": folderID}, &ignores); err != nil {
			return clientError(client, err), nil
		}
		if ignores.Ignore == nil {
			ignores.Ignore = []string{}
		}

		data := map[string]any{
			"folder":   folderID,
			"instance": client.Name(),
			"patterns": ignores.Ignore,
		}
		if !concise {
			if ignores.Expanded == nil {
				ignores.Expanded = []string{}
			}
			data["expanded"] = ignores.Expanded
		}
		return mcp.NewToolResultText(format.JSON(data, concise)), nil
	}
	return tool, handler
}

func (b *Bundle) setIgnores() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_set_ignores",
		"Set .stignore patterns for a folder. Replaces all existing patterns.",
		append(writeAnnotations("Set Folder Ignore Patterns", true),
			folderIDOption(),
			mcp.WithArray("patterns",
				mcp.Required(),
				mcp.Description("Complete list of ignore patterns."),
				mcp.Items(map[string]any{"type": "string"})),
			instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")
		patterns := stringSliceArg(req, "patterns")

		if _, err := client.Post(ctx, "/rest/db/ignores",
			map[string]string{"folder": folderID},
			map[string][]string{"ignore": patterns}); err != nil {
			return clientError(client, err), nil
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"status":   "updated",
			"folder":   folderID,
			"instance": client.Name(),
			"count":    len(patterns),
		}, true)), nil
	}
	return tool, handler
}

func (b *Bundle) getDefaultIgnores() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_get_default_ignores",
		"Default ignore patterns applied to newly created folders.",
		append(readOnlyAnnotations("Get Default Ignore Patterns"),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		concise := boolArg(req, "concise", true)

		var result struct {
			Lines []string `json:"lines"`
		}
		if err := client.GetInto(ctx, "/rest/config/defaults/ignores", nil, &result); err != nil {
			return clientError(client, err), nil
		}
		if result.Lines == nil {
			result.Lines = []string{}
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"instance": client.Name(),
			"lines":    result.Lines,
		}, concise)), nil
	}
	return tool, handler
}

func (b *Bundle) setDefaultIgnores() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_set_default_ignores",
		"Set the default ignore patterns for newly created folders.",
		append(writeAnnotations("Set Default Ignore Patterns", true),
			mcp.WithArray("lines",
				mcp.Required(),
				mcp.Description("Complete list of default ignore lines."),
				mcp.Items(map[string]any{"type": "string"})),
			instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		lines := stringSliceArg(req, "lines")

		if _, err := client.Put(ctx, "/rest/config/defaults/ignores",
			map[string][]string{"lines": lines}); err != nil {
			return clientError(client, err), nil
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"status":   "updated",
			"instance": client.Name(),
			"count":    len(lines),
		}, true)), nil
	}
	return tool, handler
}
