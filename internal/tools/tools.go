// Package tools defines the MCP tool surface over the Syncthing REST API.
// Every handler follows the same shape: resolve the target instance, issue
// the REST calls, project the result, return it as text. Failures never
// propagate as Go errors across the tool boundary; they come back as error
// results with a readable description.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/syncmcp/internal/format"
	"github.com/flemzord/syncmcp/internal/history"
	"github.com/flemzord/syncmcp/internal/metrics"
	"github.com/flemzord/syncmcp/internal/registry"
	"github.com/flemzord/syncmcp/internal/syncthing"
)

// Bundle carries the shared dependencies of all tool handlers.
type Bundle struct {
	reg     *registry.Registry
	logger  *slog.Logger
	metrics *metrics.Metrics
	history *history.Store
}

// NewBundle assembles the tool surface. metrics and store may be nil.
func NewBundle(reg *registry.Registry, logger *slog.Logger, m *metrics.Metrics, store *history.Store) *Bundle {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bundle{reg: reg, logger: logger, metrics: m, history: store}
}

// Register adds every tool to the server.
func (b *Bundle) Register(s *server.MCPServer) {
	for _, def := range []func() (mcp.Tool, server.ToolHandlerFunc){
		b.listInstances,
		b.listFolders,
		b.listDevices,
		b.connections,
		b.systemStatus,
		b.folderStatus,
		b.folderCompletion,
		b.deviceCompletion,
		b.replicationReport,
		b.pauseFolder,
		b.resumeFolder,
		b.scanFolder,
		b.overrideFolder,
		b.revertFolder,
		b.folderErrors,
		b.browseFolder,
		b.fileInfo,
		b.folderNeed,
		b.remoteNeed,
		b.pendingDevices,
		b.pendingFolders,
		b.acceptDevice,
		b.rejectDevice,
		b.acceptFolder,
		b.rejectFolder,
		b.getIgnores,
		b.setIgnores,
		b.getDefaultIgnores,
		b.setDefaultIgnores,
		b.systemErrors,
		b.clearErrors,
		b.systemLog,
		b.recentChanges,
		b.restartRequired,
		b.restart,
		b.checkUpgrade,
		b.healthSummary,
	} {
		tool, handler := def()
		s.AddTool(tool, b.instrument(tool.Name, handler))
	}
}

// instrument wraps a handler with metrics, history and debug logging.
func (b *Bundle) instrument(name string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		res, err := handler(ctx, req)
		elapsed := time.Since(start)

		isError := err != nil || (res != nil && res.IsError)
		instance := stringArg(req, "instance")

		if b.metrics != nil {
			b.metrics.ObserveTool(name, isError, elapsed)
		}
		if recErr := b.history.Record(ctx, name, instance, isError, elapsed); recErr != nil {
			b.logger.Warn("tool history write failed", "tool", name, "error", recErr)
		}
		b.logger.Debug("tool call", "tool", name, "instance", instance,
			"error", isError, "elapsed", elapsed)
		return res, err
	}
}

// resolve maps the optional instance argument to a client. On failure the
// second return value is a ready error result.
func (b *Bundle) resolve(req mcp.CallToolRequest) (*syncthing.Client, *mcp.CallToolResult) {
	client, err := b.reg.Resolve(stringArg(req, "instance"))
	if err != nil {
		return nil, mcp.NewToolResultError("Error: " + err.Error())
	}
	return client, nil
}

// clientError renders a failed REST call as an error result with the
// instance-prefixed description.
func clientError(c *syncthing.Client, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(c.DescribeError(err))
}

// Argument accessors. Tool schemas mark required fields, but the handlers
// still tolerate absent or mistyped values with zero-value fallbacks.

func stringArg(req mcp.CallToolRequest, name string) string {
	if v, ok := req.GetArguments()[name].(string); ok {
		return v
	}
	return ""
}

func boolArg(req mcp.CallToolRequest, name string, def bool) bool {
	if v, ok := req.GetArguments()[name].(bool); ok {
		return v
	}
	return def
}

func intArg(req mcp.CallToolRequest, name string, def int) int {
	// JSON numbers decode as float64.
	if v, ok := req.GetArguments()[name].(float64); ok {
		return int(v)
	}
	return def
}

func stringSliceArg(req mcp.CallToolRequest, name string) []string {
	raw, ok := req.GetArguments()[name].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// flatten converts a projection struct to a map so handlers can merge extra
// top-level keys into it.
func flatten(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// deviceNames maps device IDs to display names, falling back to the short
// ID prefix for unnamed devices.
func deviceNames(cfg *syncthing.Config) map[string]string {
	names := make(map[string]string, len(cfg.Devices))
	for _, d := range cfg.Devices {
		name := d.Name
		if name == "" {
			name = format.ShortID(d.DeviceID)
		}
		names[d.DeviceID] = name
	}
	return names
}

// Shared schema fragments.

func instanceOption() mcp.ToolOption {
	return mcp.WithString("instance",
		mcp.Description("Instance name. Omit when a single instance is configured."))
}

func conciseOption() mcp.ToolOption {
	return mcp.WithBoolean("concise",
		mcp.DefaultBool(true),
		mcp.Description("Compact output with fewer fields. Set false for full details."))
}

func readOnlyAnnotations(title string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithTitleAnnotation(title),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	}
}

func writeAnnotations(title string, idempotent bool) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithTitleAnnotation(title),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(idempotent),
		mcp.WithOpenWorldHintAnnotation(false),
	}
}

func newTool(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	all := append([]mcp.ToolOption{mcp.WithDescription(description)}, opts...)
	return mcp.NewTool(name, all...)
}
