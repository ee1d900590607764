package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/syncmcp/internal/format"
	"github.com/flemzord/syncmcp/internal/syncthing"
)

// instanceEntry is one row of the instance listing. Probe failures keep the
// row with available=false instead of failing the whole listing.
type instanceEntry struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Available bool   `json:"available"`
	Device    string `json:"deviceName,omitempty"`
	Version   string `json:"version,omitempty"`
	Folders   int    `json:"folders,omitempty"`
	Devices   int    `json:"devices,omitempty"`
	MyID      string `json:"myID,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (b *Bundle) listInstances() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_list_instances",
		"List all configured Syncthing instances and probe their availability.",
		append(readOnlyAnnotations("List Configured Instances"), conciseOption())...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		concise := boolArg(req, "concise", true)

		results := make([]instanceEntry, 0, b.reg.Len())
		for _, name := range b.reg.Names() {
			client, err := b.reg.Resolve(name)
			if err != nil {
				continue
			}
			entry := instanceEntry{Name: name, URL: client.BaseURL()}
			results = append(results, b.probeInstance(ctx, client, entry, concise))
		}
		return mcp.NewToolResultText(format.JSON(results, concise)), nil
	}
	return tool, handler
}

// probeInstance fills one listing row. Any query failure marks the instance
// unavailable without aborting the listing.
func (b *Bundle) probeInstance(ctx context.Context, client *syncthing.Client, entry instanceEntry, concise bool) instanceEntry {
	status, err := client.FetchSystemStatus(ctx)
	if err != nil {
		entry.Error = client.DescribeError(err)
		return entry
	}
	version, err := client.FetchVersion(ctx)
	if err != nil {
		entry.Error = client.DescribeError(err)
		return entry
	}
	cfg, err := client.FetchConfig(ctx)
	if err != nil {
		entry.Error = client.DescribeError(err)
		return entry
	}

	entry.Available = true
	entry.Version = version.Version
	entry.Folders = len(cfg.Folders)
	entry.Devices = len(cfg.Devices)
	entry.Device = format.ShortID(status.MyID)
	for _, d := range cfg.Devices {
		if d.DeviceID == status.MyID && d.Name != "" {
			entry.Device = d.Name
			break
		}
	}
	if !concise {
		entry.MyID = status.MyID
	}
	return entry
}

// sharedDevice names one device a folder is shared with.
type sharedDevice struct {
	DeviceID string `json:"deviceID"`
	Name     string `json:"name"`
}

// folderListingVerbose is a folder row with the full share list resolved to
// device names.
type folderListingVerbose struct {
	ID         string         `json:"id"`
	Label      string         `json:"label"`
	Path       string         `json:"path"`
	Type       string         `json:"type"`
	Paused     bool           `json:"paused"`
	SharedWith []sharedDevice `json:"sharedWith"`
}

func (b *Bundle) listFolders() (mcp.Tool, server.ToolHandlerFunc) {
	tool := newTool("syncthing_list_folders",
		"All configured folders with labels, types, and device counts.",
		append(readOnlyAnnotations("List All Folders"), instanceOption(), conciseOption())...)

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

		if concise {
			result := make([]any, 0, len(cfg.Folders))
			for _, f := range cfg.Folders {
				result = append(result, format.Folder(f, true))
			}
			return mcp.NewToolResultText(format.JSON(result, true)), nil
		}

		names := deviceNames(cfg)
		result := make([]folderListingVerbose, 0, len(cfg.Folders))
		for _, f := range cfg.Folders {
			shared := make([]sharedDevice, 0, len(f.Devices))
			for _, d := range f.Devices {
				shared = append(shared, sharedDevice{DeviceID: d.DeviceID, Name: names[d.DeviceID]})
			}
			result = append(result, folderListingVerbose{
				ID:         f.ID,
				Label:      f.DisplayLabel(),
				Path:       f.Path,
				Type:       f.EffectiveType(),
				Paused:     f.Paused,
				SharedWith: shared,
			})
		}
		return mcp.NewToolResultText(format.JSON(result, false)), nil
	}
	return tool, handler
}
