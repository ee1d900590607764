package tools

import (
	"context"
	"fmt"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/syncmcp/internal/format"
	"github.com/flemzord/syncmcp/internal/syncthing"
)

func (b *Bundle) pendingDevices() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_pending_devices",
		"Remote devices that tried to connect but are not yet configured.",
		append(readOnlyAnnotations("List Pending Device Requests"),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		concise := boolArg(req, "concise", true)

		pending, err := client.Get(ctx, "/rest/cluster/pending/devices", nil)
		if err != nil {
			return clientError(client, err), nil
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"instance":       client.Name(),
			"pendingDevices": pending,
		}, concise)), nil
	}
	return tool, handler
}

func (b *Bundle) pendingFolders() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_pending_folders",
		"Folders that remote devices have offered to share but are not yet accepted.",
		append(readOnlyAnnotations("List Pending Folder Offers"),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		concise := boolArg(req, "concise", true)

		pending, err := client.Get(ctx, "/rest/cluster/pending/folders", nil)
		if err != nil {
			return clientError(client, err), nil
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"instance":       client.Name(),
			"pendingFolders": pending,
		}, concise)), nil
	}
	return tool, handler
}

func (b *Bundle) acceptDevice() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_accept_device",
		"Accept a pending device by adding it to the Syncthing configuration.",
		append(writeAnnotations("Accept Pending Device", false),
			deviceIDOption(),
			mcp.WithString("name",
				mcp.Description("Display name for the device. Defaults to the pending request's name.")),
			instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		deviceID := stringArg(req, "device_id")
		name := stringArg(req, "name")

		var pending map[string]syncthing.PendingDevice
		if err := client.GetInto(ctx, "/rest/cluster/pending/devices", nil, &pending); err != nil {
			return clientError(client, err), nil
		}
		if name == "" {
			name = pending[deviceID].Name
		}
		if name == "" {
			name = format.ShortID(deviceID)
		}

		// The device defaults template carries every field a bare POST would
		// otherwise zero out.
		raw, err := client.Get(ctx, "/rest/config/defaults/device", nil)
		if err != nil {
			return clientError(client, err), nil
		}
		newDevice, ok := raw.(map[string]any)
		if !ok {
			newDevice = map[string]any{}
		}
		newDevice["deviceID"] = deviceID
		newDevice["name"] = name

		if _, err := client.Post(ctx, "/rest/config/devices", nil, newDevice); err != nil {
			return clientError(client, err), nil
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"status":   "accepted",
			"deviceID": format.ShortID(deviceID),
			"name":     name,
			"instance": client.Name(),
		}, true)), nil
	}
	return tool, handler
}

func (b *Bundle) rejectDevice() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_reject_device",
		"Dismiss a pending device connection request.",
		append(writeAnnotations("Reject Pending Device", true),
			deviceIDOption(), instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		deviceID := stringArg(req, "device_id")

		if _, err := client.Delete(ctx, "/rest/cluster/pending/devices",
			map[string]string{"device": deviceID}); err != nil {
			return clientError(client, err), nil
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"status":   "rejected",
			"deviceID": format.ShortID(deviceID),
			"instance": client.Name(),
		}, true)), nil
	}
	return tool, handler
}

func (b *Bundle) acceptFolder() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_accept_folder",
		"Accept a pending folder share offer. Uses the default folder config as template.",
		append(writeAnnotations("Accept Pending Folder Offer", false),
			folderIDOption(),
			mcp.WithString("path",
				mcp.Description("Local path for the folder. Defaults to the instance's default location.")),
			instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")
		path := stringArg(req, "path")

		var pending map[string]syncthing.PendingFolder
		if err := client.GetInto(ctx, "/rest/cluster/pending/folders", nil, &pending); err != nil {
			return clientError(client, err), nil
		}
		offer, ok := pending[folderID]
		if !ok || len(offer.OfferedBy) == 0 {
			msg := format.JSON(map[string]string{
				"error": fmt.Sprintf("Folder '%s' not found in pending offers.", folderID),
			}, true)
			return mcp.NewToolResultError(msg), nil
		}

		offeringDevices := make([]string, 0, len(offer.OfferedBy))
		label := folderID
		for did, o := range offer.OfferedBy {
			offeringDevices = append(offeringDevices, did)
			if o.Label != "" {
				label = o.Label
			}
		}
		sort.Strings(offeringDevices)

		status, err := client.FetchSystemStatus(ctx)
		if err != nil {
			return clientError(client, err), nil
		}

		raw, err := client.Get(ctx, "/rest/config/defaults/folder", nil)
		if err != nil {
			return clientError(client, err), nil
		}
		newFolder, ok := raw.(map[string]any)
		if !ok {
			newFolder = map[string]any{}
		}
		newFolder["id"] = folderID
		newFolder["label"] = label
		if path != "" {
			newFolder["path"] = path
		}
		deviceList := []map[string]string{{"deviceID": status.MyID}}
		for _, did := range offeringDevices {
			deviceList = append(deviceList, map[string]string{"deviceID": did})
		}
		newFolder["devices"] = deviceList

		if _, err := client.Post(ctx, "/rest/config/folders", nil, newFolder); err != nil {
			return clientError(client, err), nil
		}

		resolvedPath, _ := newFolder["path"].(string)
		if resolvedPath == "" {
			resolvedPath = "(default)"
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"status":   "accepted",
			"folder":   folderID,
			"label":    label,
			"path":     resolvedPath,
			"instance": client.Name(),
		}, true)), nil
	}
	return tool, handler
}

func (b *Bundle) rejectFolder() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_reject_folder",
		"Dismiss a pending folder share offer.",
		append(writeAnnotations("Reject Pending Folder Offer", true),
			folderIDOption(),
			mcp.WithString("device_id",
				mcp.Description("Dismiss only the offer from this device. Omit to dismiss from all.")),
			instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		folderID := stringArg(req, "folder_id")

		query := map[string]string{"folder": folderID}
		if deviceID := stringArg(req, "device_id"); deviceID != "" {
			query["device"] = deviceID
		}
		if _, err := client.Delete(ctx, "/rest/cluster/pending/folders", query); err != nil {
			return clientError(client, err), nil
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"status":   "rejected",
			"folder":   folderID,
			"instance": client.Name(),
		}, true)), nil
	}
	return tool, handler
}
