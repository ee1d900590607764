package tools

import (
	"context"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/syncmcp/internal/format"
)

func (b *Bundle) browseFolder() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_browse_folder",
		"Browse folder contents at a path prefix (directory listing from the database).",
		append(readOnlyAnnotations("Browse Folder Contents"),
			folderIDOption(),
			mcp.WithString("prefix",
				mcp.Description("Path prefix to list from. Empty lists the folder root.")),
			mcp.WithNumber("levels",
				mcp.Description("How many directory levels deep to descend.")),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")
		prefix := stringArg(req, "prefix")
		concise := boolArg(req, "concise", true)

		query := map[string]string{"folder": folderID}
		if prefix != "" {
			query["prefix"] = prefix
		}
		if levels := intArg(req, "levels", -1); levels >= 0 {
			query["levels"] = strconv.Itoa(levels)
		}

		entries, err := client.Get(ctx, "/rest/db/browse", query)
		if err != nil {
			return clientError(client, err), nil
		}
		out := format.JSON(map[string]any{
			"folder":   folderID,
			"instance": client.Name(),
			"prefix":   prefix,
			"entries":  entries,
		}, concise)
		return mcp.NewToolResultText(format.TruncateDefault(out)), nil
	}
	return tool, handler
}

func (b *Bundle) fileInfo() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_file_info",
		"Detailed info about a file: versions, availability, modification time.",
		append(readOnlyAnnotations("File Info"),
			folderIDOption(),
			mcp.WithString("file_path",
				mcp.Required(),
				mcp.Description("Path of the file relative to the folder root.")),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")
		filePath := stringArg(req, "file_path")
		concise := boolArg(req, "concise", true)

		raw, err := client.Get(ctx, "/rest/db/file",
			map[string]string{"folder": folderID, "file": filePath})
		if err != nil {
			return clientError(client, err), nil
		}
		result, _ := raw.(map[string]any)

		if concise {
			return mcp.NewToolResultText(format.JSON(map[string]any{
				"folder":       folderID,
				"file":         filePath,
				"instance":     client.Name(),
				"globalSize":   sizeOf(result["global"]),
				"localSize":    sizeOf(result["local"]),
				"availability": result["availability"],
			}, true)), nil
		}

		// Detailed mode enriches both version records with readable sizes.
		for _, key := range []string{"global", "local"} {
			if entry, ok := result[key].(map[string]any); ok {
				if size, ok := entry["size"].(float64); ok {
					entry["sizeFormatted"] = format.Bytes(int64(size))
				}
			}
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"folder":       folderID,
			"file":         filePath,
			"instance":     client.Name(),
			"availability": result["availability"],
			"global":       result["global"],
			"local":        result["local"],
		}, false)), nil
	}
	return tool, handler
}

// sizeOf renders the size of a version record, nil when the record is absent.
func sizeOf(entry any) any {
	m, ok := entry.(map[string]any)
	if !ok || len(m) == 0 {
		return nil
	}
	size, _ := m["size"].(float64)
	return format.Bytes(int64(size))
}

func pageOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("page",
			mcp.DefaultNumber(1),
			mcp.Description("Page number, starting at 1.")),
		mcp.WithNumber("per_page",
			mcp.DefaultNumber(50),
			mcp.Description("Items per page.")),
	}
}

func (b *Bundle) folderNeed() (mcp.Tool, server.ToolHandlerFunc) {
	opts := append(readOnlyAnnotations("Folder Need (Out-of-Sync Files)"), folderIDOption())
	opts = append(opts, pageOptions()...)
	opts = append(opts, instanceOption(), conciseOption())
	tool := newTool("syncthing_folder_need",
		"Files this folder still needs: items that are out of sync locally.", opts...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")
		page := intArg(req, "page", 1)
		perPage := intArg(req, "per_page", 50)
		concise := boolArg(req, "concise", true)

		raw, err := client.Get(ctx, "/rest/db/need", map[string]string{
			"folder":  folderID,
			"page":    strconv.Itoa(page),
			"perpage": strconv.Itoa(perPage),
		})
		if err != nil {
			return clientError(client, err), nil
		}
		result, _ := raw.(map[string]any)

		out := format.JSON(map[string]any{
			"folder":   folderID,
			"instance": client.Name(),
			"page":     orDefault(result["page"], page),
			"perpage":  orDefault(result["perpage"], perPage),
			"progress": orEmptyList(result["progress"]),
			"queued":   orEmptyList(result["queued"]),
			"rest":     orEmptyList(result["rest"]),
		}, concise)
		return mcp.NewToolResultText(format.TruncateDefault(out)), nil
	}
	return tool, handler
}

func (b *Bundle) remoteNeed() (mcp.Tool, server.ToolHandlerFunc) {
	opts := append(readOnlyAnnotations("Remote Need (What a Device Needs from Us)"),
		folderIDOption(), deviceIDOption())
	opts = append(opts, pageOptions()...)
	opts = append(opts, instanceOption(), conciseOption())
	tool := newTool("syncthing_remote_need",
		"Files a remote device still needs from us for a specific folder. "+
			"Useful for debugging why sync to a device is incomplete.", opts...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")
		deviceID := stringArg(req, "device_id")
		page := intArg(req, "page", 1)
		perPage := intArg(req, "per_page", 50)
		concise := boolArg(req, "concise", true)

		raw, err := client.Get(ctx, "/rest/db/remoteneed", map[string]string{
			"folder":  folderID,
			"device":  deviceID,
			"page":    strconv.Itoa(page),
			"perpage": strconv.Itoa(perPage),
		})
		if err != nil {
			return clientError(client, err), nil
		}
		result, _ := raw.(map[string]any)

		out := format.JSON(map[string]any{
			"folder":   folderID,
			"device":   format.ShortID(deviceID),
			"instance": client.Name(),
			"page":     orDefault(result["page"], page),
			"perpage":  orDefault(result["perpage"], perPage),
			"progress": orEmptyList(result["progress"]),
			"queued":   orEmptyList(result["queued"]),
			"rest":     orEmptyList(result["rest"]),
		}, concise)
		return mcp.NewToolResultText(format.TruncateDefault(out)), nil
	}
	return tool, handler
}

func orDefault(v any, def int) any {
	if v == nil {
		return def
	}
	return v
}

func orEmptyList(v any) any {
	if v == nil {
		return []any{}
	}
	return v
}
