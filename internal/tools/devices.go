package tools

import (
	"context"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/syncmcp/internal/format"
)

func deviceIDOption() mcp.ToolOption {
	return mcp.WithString("device_id",
		mcp.Required(),
		mcp.Description("Full device ID. Short display prefixes are not accepted."))
}

func (b *Bundle) listDevices() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_list_devices",
		"List all configured devices with their names, connection status, and last seen time.",
		append(readOnlyAnnotations("List All Devices"),
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
		stats, err := client.FetchDeviceStats(ctx)
		if err != nil {
			return clientError(client, err), nil
		}

		result := make([]any, 0, len(cfg.Devices))
		for _, dev := range cfg.Devices {
			result = append(result, format.Device(dev, conns.Connections[dev.DeviceID], stats[dev.DeviceID], concise))
		}
		return mcp.NewToolResultText(format.JSON(result, concise)), nil
	}
	return tool, handler
}

func (b *Bundle) deviceCompletion() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_device_completion",
		"Aggregated sync completion for a remote device across all shared folders.",
		append(readOnlyAnnotations("Device Completion (All Folders)"),
			deviceIDOption(), instanceOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		deviceID := stringArg(req, "device_id")

		comp, err := client.FetchDeviceCompletion(ctx, deviceID)
		if err != nil {
			return clientError(client, err), nil
		}
		remoteState := comp.RemoteState
		if remoteState == "" {
			remoteState = "unknown"
		}
		return mcp.NewToolResultText(format.JSON(map[string]any{
			"deviceID":    deviceID,
			"instance":    client.Name(),
			"completion":  format.Round2(comp.Completion),
			"globalBytes": comp.GlobalBytes,
			"globalSize":  format.Bytes(comp.GlobalBytes),
			"needBytes":   comp.NeedBytes,
			"needSize":    format.Bytes(comp.NeedBytes),
			"needItems":   comp.NeedItems,
			"remoteState": remoteState,
		}, false)), nil
	}
	return tool, handler
}

func (b *Bundle) connections() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_connections",
		"Current connection details for all devices: address, bytes transferred, "+
			"crypto, and connection type.",
		append(readOnlyAnnotations("Active Connections"),
			instanceOption(), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		client, errRes := b.resolve(req)
		if errRes != nil {
			return errRes, nil
		}
		concise := boolArg(req, "concise", true)

		conns, err := client.FetchConnections(ctx)
		if err != nil {
			return clientError(client, err), nil
		}
		cfg, err := client.FetchConfig(ctx)
		if err != nil {
			return clientError(client, err), nil
		}
		names := deviceNames(cfg)

		ids := make([]string, 0, len(conns.Connections))
		for did := range conns.Connections {
			ids = append(ids, did)
		}
		sort.Strings(ids)

		result := make([]any, 0, len(ids))
		for _, did := range ids {
			result = append(result, format.Connection(did, conns.Connections[did], names[did], concise))
		}
		return mcp.NewToolResultText(format.JSON(result, concise)), nil
	}
	return tool, handler
}
