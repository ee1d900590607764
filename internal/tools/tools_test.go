package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/flemzord/syncmcp/internal/config"
	"github.com/flemzord/syncmcp/internal/format"
	"github.com/flemzord/syncmcp/internal/registry"
	"github.com/flemzord/syncmcp/internal/syncthing"
)

// fakeDaemon serves a small two-folder cluster:
//   - "docs"  (25 KB local) fully replicated on the connected device "nas"
//   - "media" (9 KB local) only half synced, remote state unknown
const (
	myID     = "AAAAAAA-LOCAL00-0000000-0000000"
	remoteID = "BBBBBBB-REMOTE0-0000000-0000000"
)

func fakeDaemon(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/rest/config", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"folders": []map[string]any{
				{
					"id": "docs", "label": "Documents", "path": "/data/docs",
					"type": "sendreceive",
					"devices": []map[string]string{
						{"deviceID": myID}, {"deviceID": remoteID},
					},
				},
				{
					"id": "media", "path": "/data/media",
					"type": "sendreceive",
					"devices": []map[string]string{
						{"deviceID": myID}, {"deviceID": remoteID},
					},
				},
			},
			"devices": []map[string]any{
				{"deviceID": myID, "name": "local"},
				{"deviceID": remoteID, "name": "nas"},
			},
		})
	})
	mux.HandleFunc("/rest/system/status", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"myID": myID, "uptime": 3600})
	})
	mux.HandleFunc("/rest/system/version", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"version": "v1.27.0", "os": "linux", "arch": "amd64"})
	})
	mux.HandleFunc("/rest/system/connections", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"connections": map[string]any{
				remoteID: map[string]any{"connected": true, "address": "10.0.0.2:22000"},
			},
		})
	})
	mux.HandleFunc("/rest/db/status", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("folder") {
		case "docs":
			writeJSON(w, map[string]any{"state": "idle", "localBytes": 25600, "globalBytes": 25600})
		case "media":
			writeJSON(w, map[string]any{"state": "idle", "localBytes": 9216, "globalBytes": 9216})
		default:
			http.Error(w, "no such folder", http.StatusNotFound)
		}
	})
	mux.HandleFunc("/rest/db/completion", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("folder") {
		case "docs":
			writeJSON(w, map[string]any{"completion": 100, "remoteState": "valid"})
		case "media":
			writeJSON(w, map[string]any{"completion": 50, "remoteState": "unknown", "needBytes": 4608})
		default:
			http.Error(w, "no such folder", http.StatusNotFound)
		}
	})
	mux.HandleFunc("/rest/system/error", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"errors": nil})
	})
	mux.HandleFunc("/rest/cluster/pending/devices", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{})
	})
	mux.HandleFunc("/rest/cluster/pending/folders", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestBundle(t *testing.T, url string) *Bundle {
	t.Helper()
	reg := registry.New(nil, map[string]config.Instance{
		"default": {URL: url, APIKey: "k"},
	})
	return NewBundle(reg, nil, nil, nil)
}

func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestReplicationReport(t *testing.T) {
	t.Parallel()

	srv := fakeDaemon(t)
	b := newTestBundle(t, srv.URL)
	_, handler := b.replicationReport()

	res, err := handler(context.Background(), callReq(map[string]any{"concise": true}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", textOf(t, res))
	}

	var out struct {
		Summary struct {
			Total       int    `json:"total"`
			Safe        int    `json:"safe"`
			Reclaimable string `json:"reclaimable"`
		} `json:"summary"`
		Folders []struct {
			ID   string `json:"id"`
			Safe bool   `json:"safeToRemove"`
		} `json:"folders"`
	}
	if err := json.Unmarshal([]byte(textOf(t, res)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if out.Summary.Total != 2 || out.Summary.Safe != 1 {
		t.Fatalf("summary = %+v", out.Summary)
	}
	if out.Summary.Reclaimable != "25.0 KB" {
		t.Fatalf("reclaimable = %q", out.Summary.Reclaimable)
	}
	// Safe folders sort first.
	if out.Folders[0].ID != "docs" || !out.Folders[0].Safe {
		t.Fatalf("first folder = %+v", out.Folders[0])
	}
	if out.Folders[1].ID != "media" || out.Folders[1].Safe {
		t.Fatalf("second folder = %+v", out.Folders[1])
	}
}

func TestFolderCompletion_FullReplica(t *testing.T) {
	t.Parallel()

	srv := fakeDaemon(t)
	b := newTestBundle(t, srv.URL)
	_, handler := b.folderCompletion()

	res, err := handler(context.Background(), callReq(map[string]any{"folder_id": "docs"}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var out struct {
		Label           string `json:"label"`
		RemoteDevices   int    `json:"remoteDevices"`
		FullyReplicated int    `json:"fullyReplicated"`
	}
	if err := json.Unmarshal([]byte(textOf(t, res)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Label != "Documents" || out.RemoteDevices != 1 || out.FullyReplicated != 1 {
		t.Fatalf("out = %+v", out)
	}
}

func TestFolderCompletion_UnknownFolder(t *testing.T) {
	t.Parallel()

	srv := fakeDaemon(t)
	b := newTestBundle(t, srv.URL)
	_, handler := b.folderCompletion()

	res, err := handler(context.Background(), callReq(map[string]any{"folder_id": "nope"}))
	if err != nil {
		t.Fatalf("handler must not fail as a Go error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result for unknown folder")
	}
	if !strings.Contains(textOf(t, res), "Folder 'nope' not found in config.") {
		t.Fatalf("message = %q", textOf(t, res))
	}
}

func TestListFolders_Concise(t *testing.T) {
	t.Parallel()

	srv := fakeDaemon(t)
	b := newTestBundle(t, srv.URL)
	_, handler := b.listFolders()

	res, err := handler(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var rows []struct {
		ID    string `json:"id"`
		Label string `json:"label"`
	}
	if err := json.Unmarshal([]byte(textOf(t, res)), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	// Unlabelled folders fall back to the ID.
	if rows[1].ID != "media" || rows[1].Label != "media" {
		t.Fatalf("row = %+v", rows[1])
	}
}

func TestResolve_AmbiguousInstanceBecomesErrorResult(t *testing.T) {
	t.Parallel()

	srv := fakeDaemon(t)
	reg := registry.New(nil, map[string]config.Instance{
		"a": {URL: srv.URL, APIKey: "k"},
		"b": {URL: srv.URL, APIKey: "k"},
	})
	b := NewBundle(reg, nil, nil, nil)
	_, handler := b.listFolders()

	res, err := handler(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("resolution failure must be a result, not a Go error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
	msg := textOf(t, res)
	if !strings.Contains(msg, "a") || !strings.Contains(msg, "b") {
		t.Fatalf("message must list instances, got %q", msg)
	}
}

func TestPauseFolder_RoundTripsConfig(t *testing.T) {
	t.Parallel()

	var patched map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/config/folders/docs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"docs","type":"sendreceive","paused":false,"fsWatcherEnabled":true}`))
		case http.MethodPatch:
			_ = json.NewDecoder(r.Body).Decode(&patched)
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "bad method", http.StatusMethodNotAllowed)
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	b := newTestBundle(t, srv.URL)
	_, handler := b.pauseFolder()

	res, err := handler(context.Background(), callReq(map[string]any{"folder_id": "docs"}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error: %s", textOf(t, res))
	}
	if patched["paused"] != true {
		t.Fatalf("patched paused = %v", patched["paused"])
	}
	// Fields the server does not model must survive the round trip.
	if patched["fsWatcherEnabled"] != true {
		t.Fatalf("unmodelled field dropped: %v", patched)
	}
	if !strings.Contains(textOf(t, res), `"paused"`) {
		t.Fatalf("result = %q", textOf(t, res))
	}
}

func TestHealthSummary_AllGood(t *testing.T) {
	t.Parallel()

	srv := fakeDaemon(t)
	b := newTestBundle(t, srv.URL)
	_, handler := b.healthSummary()

	res, err := handler(context.Background(), callReq(map[string]any{"concise": true}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	var out struct {
		Status  string   `json:"status"`
		Alerts  []string `json:"alerts"`
		Summary struct {
			Folders       int `json:"folders"`
			Idle          int `json:"idle"`
			DevicesOnline int `json:"devicesOnline"`
		} `json:"summary"`
	}
	if err := json.Unmarshal([]byte(textOf(t, res)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "good" || len(out.Alerts) != 0 {
		t.Fatalf("out = %+v", out)
	}
	if out.Summary.Folders != 2 || out.Summary.Idle != 2 || out.Summary.DevicesOnline != 1 {
		t.Fatalf("summary = %+v", out.Summary)
	}
}

func TestDeviceNames_UnnamedFallsBackToShortID(t *testing.T) {
	t.Parallel()

	cfg := &syncthing.Config{Devices: []syncthing.DeviceConfig{
		{DeviceID: remoteID, Name: "nas"},
		{DeviceID: myID},
	}}
	names := deviceNames(cfg)

	if names[remoteID] != "nas" {
		t.Fatalf("named device = %q", names[remoteID])
	}
	if names[myID] != format.ShortID(myID) {
		t.Fatalf("unnamed device = %q, want short ID %q", names[myID], format.ShortID(myID))
	}
}

func TestSystemStatus_ConciseTruncatesID(t *testing.T) {
	t.Parallel()

	srv := fakeDaemon(t)
	b := newTestBundle(t, srv.URL)
	_, handler := b.systemStatus()

	res, err := handler(context.Background(), callReq(map[string]any{"concise": true}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	var out struct {
		MyID       string `json:"myID"`
		DeviceName string `json:"deviceName"`
	}
	if err := json.Unmarshal([]byte(textOf(t, res)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.MyID != myID[:7] {
		t.Fatalf("myID = %q, want 7-char prefix", out.MyID)
	}
	if out.DeviceName != "local" {
		t.Fatalf("deviceName = %q", out.DeviceName)
	}
}
