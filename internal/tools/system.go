package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/syncmcp/internal/format"
	"github.com/flemzord/syncmcp/internal/syncthing"
)

func (b *Bundle) systemStatus() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_system_status",
		"Device ID, name, uptime, version, and folder/device counts.",
		append(readOnlyAnnotations("System Status"),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		concise := boolArg(req, "concise", true)

		status, err := client.FetchSystemStatus(ctx)
		if err != nil {
			return clientError(client, err), nil
		}
		version, err := client.FetchVersion(ctx)
		if err != nil {
			return clientError(client, err), nil
		}
		cfg, err := client.FetchConfig(ctx)
		if err != nil {
			return clientError(client, err), nil
		}

		deviceName := format.ShortID(status.MyID)
		for _, d := range cfg.Devices {
			if d.DeviceID == status.MyID && d.Name != "" {
				deviceName = d.Name
				break
			}
		}

		myID := status.MyID
		if concise {
			myID = format.ShortID(myID)
		}
		data := map[string]any{
			"instance":   client.Name(),
			"myID":       myID,
			"deviceName": deviceName,
			"uptime":     status.Uptime,
			"version":    version.Version,
			"folders":    len(cfg.Folders),
			"devices":    len(cfg.Devices),
		}
		if !concise {
			data["os"] = version.OS
			data["arch"] = version.Arch
		}
		return mcp.NewToolResultText(format.JSON(data, concise)), nil
	}
	return tool, handler
}

func (b *Bundle) systemErrors() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_system_errors",
		"Recent system errors and warnings.",
		append(readOnlyAnnotations("System Errors & Warnings"),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		concise := boolArg(req, "concise", true)

		var result syncthing.SystemErrors
		if err := client.GetInto(ctx, "/rest/system/error", nil, &result); err != nil {
			return clientError(client, err), nil
		}
		if result.Errors == nil {
			result.Errors = []syncthing.LogLine{}
		}
		out := format.JSON(map[string]any{
			"instance": client.Name(),
			"count":    len(result.Errors),
			"errors":   result.Errors,
		}, concise)
		return mcp.NewToolResultText(format.TruncateDefault(out)), nil
	}
	return tool, handler
}

func (b *Bundle) clearErrors() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_clear_errors",
		"Clear the system error log.",
		append(writeAnnotations("Clear System Errors", true), instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		if _, err := client.Post(ctx, "/rest/system/error/clear", nil, nil); err != nil {
			return clientError(client, err), nil
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"status":   "cleared",
			"instance": client.Name(),
		}, true)), nil
	}
	return tool, handler
}

func (b *Bundle) systemLog() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_system_log",
		"Recent system log entries.",
		append(readOnlyAnnotations("System Log"),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		concise := boolArg(req, "concise", true)

		var result syncthing.SystemLog
		if err := client.GetInto(ctx, "/rest/system/log", nil, &result); err != nil {
			return clientError(client, err), nil
		}
		if result.Messages == nil {
			result.Messages = []syncthing.LogLine{}
		}
		out := format.JSON(map[string]any{
			"instance": client.Name(),
			"count":    len(result.Messages),
			"messages": result.Messages,
		}, concise)
		return mcp.NewToolResultText(format.TruncateDefault(out)), nil
	}
	return tool, handler
}

// conciseEvent trims a change event to the fields worth scanning. The type
// is cut to a 6-char prefix ("LocalChangeDetected" shows as "LocalC").
type conciseEvent struct {
	Type   string `json:"type"`
	Folder string `json:"folder"`
	Path   string `json:"path"`
	Action string `json:"action"`
}

func (b *Bundle) recentChanges() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_recent_changes",
		"Recent file change events (local and remote) across all folders.",
		append(readOnlyAnnotations("Recent File Changes"),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		concise := boolArg(req, "concise", true)

		var events []syncthing.Event
		if err := client.GetInto(ctx, "/rest/events", map[string]string{
			"events":  "LocalChangeDetected,RemoteChangeDetected",
			"limit":   "50",
			"timeout": "0",
		}, &events); err != nil {
			return clientError(client, err), nil
		}

		var payload any = events
		count := len(events)
		if concise {
			rows := make([]conciseEvent, 0, len(events))
			for _, e := range events {
				t := e.Type
				if len(t) > 6 {
					t = t[:6]
				}
				rows = append(rows, conciseEvent{
					Type:   t,
					Folder: e.Data.FolderID,
					Path:   e.Data.Path,
					Action: e.Data.Action,
				})
			}
			payload = rows
		}
		out := format.JSON(map[string]any{
			"instance": client.Name(),
			"count":    count,
			"events":   payload,
		}, concise)
		return mcp.NewToolResultText(format.TruncateDefault(out)), nil
	}
	return tool, handler
}

func (b *Bundle) restartRequired() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_restart_required",
		"Check if Syncthing requires a restart for config changes to take effect.",
		append(readOnlyAnnotations("Check if Restart Required"), instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		var result syncthing.RestartRequired
		if err := client.GetInto(ctx, "/rest/config/restart-required", nil, &result); err != nil {
			return clientError(client, err), nil
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"instance":        client.Name(),
			"restartRequired": result.RequiresRestart,
		}, true)), nil
	}
	return tool, handler
}

func (b *Bundle) restart() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_restart",
		"Restart the Syncthing service. Temporarily stops all sync activity.",
		append(writeAnnotations("Restart Syncthing", true), instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		if _, err := client.Post(ctx, "/rest/system/restart", nil, nil); err != nil {
			// The daemon drops the connection as it goes down; that is the
			// expected outcome of a restart, not a failure.
			if !syncthing.IsConnectionDropped(err) {
				return clientError(client, err), nil
			}
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"status":   "restart_initiated",
			"instance": client.Name(),
			"message":  fmt.Sprintf("Syncthing '%s' is restarting.", client.Name()),
		}, true)), nil
	}
	return tool, handler
}

func (b *Bundle) checkUpgrade() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_check_upgrade",
		"Check if a newer version of Syncthing is available.",
		append(readOnlyAnnotations("Check for Upgrade"),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		concise := boolArg(req, "concise", true)

		version, err := client.FetchVersion(ctx)
		if err != nil {
			return clientError(client, err), nil
		}

		var upgrade syncthing.Upgrade
		if err := client.GetInto(ctx, "/rest/system/upgrade", nil, &upgrade); err != nil {
			// Builds without the upgrade mechanism answer 501.
			var apiErr *syncthing.APIError
			if errors.As(err, &apiErr) && apiErr.Status == 501 {
				return mcp.NewToolResultText(format.JSON(map[string]any{
					"instance":     client.Name(),
					"running":      version.Version,
					"upgradeCheck": "unavailable",
				}, true)), nil
			}
			return clientError(client, err), nil
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"instance": client.Name(),
			"running":  version.Version,
			"latest":   upgrade.Latest,
			"newer":    upgrade.Newer,
		}, concise)), nil
	}
	return tool, handler
}

func (b *Bundle) healthSummary() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_health_summary",
		"Single-call health overview: system status, folder states, device "+
			"connectivity, errors, and pending items. Start here for quick triage.",
		append(readOnlyAnnotations("Health Summary"),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		concise := boolArg(req, "concise", true)

		sysStatus, err := client.FetchSystemStatus(ctx)
		if err != nil {
			return clientError(client, err), nil
		}
		cfg, err := client.FetchConfig(ctx)
		if err != nil {
			return clientError(client, err), nil
		}
		var sysErrors syncthing.SystemErrors
		if err := client.GetInto(ctx, "/rest/system/error", nil, &sysErrors); err != nil {
			return clientError(client, err), nil
		}
		conns, err := client.FetchConnections(ctx)
		if err != nil {
			return clientError(client, err), nil
		}

		// Pending items are best effort: older daemons lack these endpoints.
		var pendingDevices map[string]syncthing.PendingDevice
		if err := client.GetInto(ctx, "/rest/cluster/pending/devices", nil, &pendingDevices); err != nil {
			pendingDevices = nil
		}
		var pendingFolders map[string]syncthing.PendingFolder
		if err := client.GetInto(ctx, "/rest/cluster/pending/folders", nil, &pendingFolders); err != nil {
			pendingFolders = nil
		}

		onlineCount := 0
		for _, c := range conns.Connections {
			if c.Connected {
				onlineCount++
			}
		}
		offlineCount := len(conns.Connections) - onlineCount

		type folderHealth struct {
			ID       string `json:"id"`
			State    string `json:"state"`
			NeedSize string `json:"needSize,omitempty"`
		}
		folderStates := make([]folderHealth, 0, len(cfg.Folders))
		var pausedCount, syncingCount, errorFolders, idleCount int

		for _, f := range cfg.Folders {
			if f.Paused {
				pausedCount++
				folderStates = append(folderStates, folderHealth{ID: f.ID, State: "paused"})
				continue
			}
			fstatus, err := client.FetchFolderStatus(ctx, f.ID)
			if err != nil {
				errorFolders++
				folderStates = append(folderStates, folderHealth{ID: f.ID, State: "unreachable"})
				continue
			}
			state := fstatus.State
			if state == "" {
				state = "unknown"
			}
			entry := folderHealth{ID: f.ID, State: state}
			switch state {
			case "syncing", "sync-preparing":
				syncingCount++
				entry.NeedSize = format.Bytes(fstatus.NeedBytes)
			case "error":
				errorFolders++
			case "idle":
				idleCount++
			}
			folderStates = append(folderStates, entry)
		}

		var alerts []string
		if n := len(sysErrors.Errors); n > 0 {
			alerts = append(alerts, fmt.Sprintf("%d system error(s)", n))
		}
		if errorFolders > 0 {
			alerts = append(alerts, fmt.Sprintf("%d folder(s) in error state", errorFolders))
		}
		if offlineCount > 0 {
			alerts = append(alerts, fmt.Sprintf("%d device(s) offline", offlineCount))
		}
		if pausedCount > 0 {
			alerts = append(alerts, fmt.Sprintf("%d folder(s) paused", pausedCount))
		}
		if syncingCount > 0 {
			alerts = append(alerts, fmt.Sprintf("%d folder(s) syncing", syncingCount))
		}
		if n := len(pendingDevices); n > 0 {
			alerts = append(alerts, fmt.Sprintf("%d pending device(s)", n))
		}
		if n := len(pendingFolders); n > 0 {
			alerts = append(alerts, fmt.Sprintf("%d pending folder(s)", n))
		}

		overall := "good"
		switch {
		case errorFolders > 0 || len(sysErrors.Errors) > 0:
			overall = "error"
		case len(alerts) > 0:
			overall = "warning"
		}
		if alerts == nil {
			alerts = []string{}
		}

		data := map[string]any{
			"instance": client.Name(),
			"status":   overall,
			"uptime":   sysStatus.Uptime,
			"summary": map[string]any{
				"folders":        len(cfg.Folders),
				"idle":           idleCount,
				"syncing":        syncingCount,
				"paused":         pausedCount,
				"errors":         errorFolders,
				"devicesOnline":  onlineCount,
				"devicesOffline": offlineCount,
				"pendingDevices": len(pendingDevices),
				"pendingFolders": len(pendingFolders),
			},
			"alerts": alerts,
		}
		if !concise {
			data["folders"] = folderStates
		}
		return mcp.NewToolResultText(format.JSON(data, concise)), nil
	}
	return tool, handler
}
