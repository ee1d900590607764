package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/syncmcp/internal/format"
	"github.com/flemzord/syncmcp/internal/replication"
	"github.com/flemzord/syncmcp/internal/syncthing"
)

func folderIDOption() mcp.ToolOption {
	return mcp.WithString("folder_id",
		mcp.Required(),
		mcp.Description("Folder ID as configured on the instance."))
}

func (b *Bundle) folderStatus() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_folder_status",
		"Detailed status for a folder: file counts, bytes, sync state. "+
			"Note: expensive call on the Syncthing side. Use sparingly.",
		append(readOnlyAnnotations("Folder Status"),
			folderIDOption(), instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")
		concise := boolArg(req, "concise", true)

		status, err := client.FetchFolderStatus(ctx, folderID)
		if err != nil {
			return clientError(client, err), nil
		}

		data := flatten(format.FolderStatus(*status, concise))
		data["folder"] = folderID
		data["instance"] = client.Name()
		if !concise {
			stats, err := client.FetchFolderStats(ctx)
			if err != nil {
				return clientError(client, err), nil
			}
			data["lastScan"] = stats[folderID].LastScan
			data["lastFile"] = stats[folderID].LastFile
		}
		return mcp.NewToolResultText(format.JSON(data, concise)), nil
	}
	return tool, handler
}

func (b *Bundle) folderCompletion() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_folder_completion",
		"Per-device replication completion % for a folder. Key tool for "+
			"determining if a folder is fully replicated before local removal.",
		append(readOnlyAnnotations("Folder Completion by Device"),
			folderIDOption(), instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")
		concise := boolArg(req, "concise", true)

		cfg, err := client.FetchConfig(ctx)
		if err != nil {
			return clientError(client, err), nil
		}
		conns, err := client.FetchConnections(ctx)
		if err != nil {
			return clientError(client, err), nil
		}
		status, err := client.FetchSystemStatus(ctx)
		if err != nil {
			return clientError(client, err), nil
		}

		folderCfg, ok := cfg.FolderByID(folderID)
		if !ok {
			msg := format.JSON(map[string]string{
				"error": fmt.Sprintf("Folder '%s' not found in config.", folderID),
			}, true)
			return mcp.NewToolResultError(msg), nil
		}

		names := deviceNames(cfg)
		devices := make([]any, 0, len(folderCfg.Devices))
		fully := 0
		for _, did := range folderCfg.RemoteDeviceIDs(status.MyID) {
			connected := conns.Connections[did].Connected
			name := names[did]
			if name == "" {
				name = format.ShortID(did)
			}
			comp, err := client.FetchCompletion(ctx, folderID, did)
			if err != nil {
				devices = append(devices, format.UnreachableCompletion{
					Device: name,
					Error:  "unreachable",
				})
				continue
			}
			if comp.Completion == 100 && comp.RemoteState == "valid" {
				fully++
			}
			devices = append(devices, format.Completion(*comp, name, connected, concise))
		}

		return mcp.NewToolResultText(format.JSON(map[string]any{
			"folder":          folderID,
			"label":           folderCfg.DisplayLabel(),
			"instance":        client.Name(),
			"remoteDevices":   len(devices),
			"fullyReplicated": fully,
			"devices":         devices,
		}, concise)), nil
	}
	return tool, handler
}

func (b *Bundle) replicationReport() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_replication_report",
		"Replication analysis for ALL folders. Shows safe-to-remove flag and "+
			"reclaimable space. Primary tool for disk-space cleanup decisions.",
		append(readOnlyAnnotations("Replication Report: Safe to Remove?"),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		concise := boolArg(req, "concise", true)

		cfg, err := client.FetchConfig(ctx)
		if err != nil {
			return clientError(client, err), nil
		}
		conns, err := client.FetchConnections(ctx)
		if err != nil {
			return clientError(client, err), nil
		}
		status, err := client.FetchSystemStatus(ctx)
		if err != nil {
			return clientError(client, err), nil
		}

		names := deviceNames(cfg)
		entries := make([]replication.Entry, 0, len(cfg.Folders))
		for _, folderCfg := range cfg.Folders {
			entry := replication.Entry{Folder: folderCfg}

			fstatus, err := client.FetchFolderStatus(ctx, folderCfg.ID)
			if err != nil {
				entry.StatusUnreachable = true
				entries = append(entries, entry)
				continue
			}
			entry.Status = fstatus

			for _, did := range folderCfg.RemoteDeviceIDs(status.MyID) {
				name := names[did]
				if name == "" {
					name = format.ShortID(did)
				}
				dr := replication.DeviceResult{
					DeviceID:  did,
					Name:      name,
					Connected: conns.Connections[did].Connected,
				}
				comp, err := client.FetchCompletion(ctx, folderCfg.ID, did)
				if err != nil {
					dr.Unreachable = true
				} else {
					dr.Completion = comp
				}
				entry.Devices = append(entry.Devices, dr)
			}
			entries = append(entries, entry)
		}

		replication.SortEntries(entries)

		report := make([]any, 0, len(entries))
		for _, e := range entries {
			report = append(report, replication.Project(e, concise))
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"instance": client.Name(),
			"summary":  replication.Summarize(entries),
			"folders":  report,
		}, concise)), nil
	}
	return tool, handler
}

// setFolderPaused round-trips the folder config through the raw map form so
// fields this server does not model survive the PATCH.
func setFolderPaused(ctx context.Context, client *syncthing.Client, folderID string, paused bool) (map[string]any, error) {
	raw, err := client.Get(ctx, "/rest/config/folders/"+folderID, nil)
	if err != nil {
		return nil, err
	}
	folderCfg, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("tools: unexpected folder config shape for %q", folderID)
	}
	folderCfg["paused"] = paused
	if _, err := client.Patch(ctx, "/rest/config/folders/"+folderID, folderCfg); err != nil {
		return nil, err
	}
	return folderCfg, nil
}

func (b *Bundle) pauseFolder() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_pause_folder",
		"Pause syncing for a folder. Does NOT delete data, only stops sync "+
			"so you can safely remove the local copy without propagating deletions.",
		append(writeAnnotations("Pause a Folder", true),
			folderIDOption(), instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")

		if _, err := setFolderPaused(ctx, client, folderID, true); err != nil {
			return clientError(client, err), nil
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"status":   "paused",
			"folder":   folderID,
			"instance": client.Name(),
		}, true)), nil
	}
	return tool, handler
}

func (b *Bundle) resumeFolder() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_resume_folder",
		"Resume syncing for a paused folder. WARNING: if local data was deleted "+
			"while paused, behaviour depends on folder type (sendreceive may propagate "+
			"deletions; receiveonly will re-download).",
		append(writeAnnotations("Resume a Folder", true),
			folderIDOption(), instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")

		folderCfg, err := setFolderPaused(ctx, client, folderID, false)
		if err != nil {
			return clientError(client, err), nil
		}
		folderType, _ := folderCfg["type"].(string)
		if folderType == "" {
			folderType = "sendreceive"
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"status":   "resumed",
			"folder":   folderID,
			"type":     folderType,
			"instance": client.Name(),
		}, true)), nil
	}
	return tool, handler
}

// folderAction covers the POST endpoints that take only a folder query.
func (b *Bundle) folderAction(name, title, description, path, status string) (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool(name, description,
		append(writeAnnotations(title, true), folderIDOption(), instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")

		if _, err := client.Post(ctx, path, map[string]string{"folder": folderID}, nil); err != nil {
			return clientError(client, err), nil
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"status":   status,
			"folder":   folderID,
			"instance": client.Name(),
		}, true)), nil
	}
	return tool, handler
}

func (b *Bundle) scanFolder() (mcp.Tool, server.ToolHandlerFunc) {
	return b.folderAction("syncthing_scan_folder", "Trigger Folder Scan",
		"Trigger an immediate rescan of a folder to refresh its status.",
		"/rest/db/scan", "scan_requested")
}

func (b *Bundle) overrideFolder() (mcp.Tool, server.ToolHandlerFunc) {
	return b.folderAction("syncthing_override_folder", "Override Remote Changes (Send-Only)",
		"Override remote changes on a send-only folder (make local authoritative).",
		"/rest/db/override", "override_requested")
}

func (b *Bundle) revertFolder() (mcp.Tool, server.ToolHandlerFunc) {
	return b.folderAction("syncthing_revert_folder", "Revert Local Changes (Receive-Only)",
		"Revert local changes on a receive-only folder (pull remote state).",
		"/rest/db/revert", "revert_requested")
}

func (b *Bundle) folderErrors() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_folder_errors",
		"Current sync errors for a specific folder.",
		append(readOnlyAnnotations("Folder Errors"),
			folderIDOption(), instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")
		concise := boolArg(req, "concise", true)

		var errs syncthing.FolderErrors
		if err := client.GetInto(ctx, "/rest/folder/errors", map[string]string{"folder": folderID}, &errs); err != nil {
			return clientError(client, err), nil
		}
		errorList := errs.Errors
		if errorList == nil {
			errorList = []syncthing.FileError{}
		}
		out := format.JSON(map[string]any{
			"folder":   folderID,
			"instance": client.Name(),
			"count":    len(errorList),
			"errors":   errorList,
		}, concise)
		return mcp.NewToolResultText(format.TruncateDefault(out)), nil
	}
	return tool, handler
}
