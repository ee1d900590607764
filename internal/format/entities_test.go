package format

import (
	"encoding/json"
	"testing"

	"github.com/flemzord/syncmcp/internal/syncthing"
)

func jsonKeys(t *testing.T, v any) map[string]struct{} {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := make(map[string]struct{}, len(m))
	for k := range m {
		keys[k] = struct{}{}
	}
	return keys
}

// Fully populated inputs so omitempty cannot hide a key from either tier.
func sampleProjections() []struct {
	name             string
	concise, verbose any
} {
	folder := syncthing.FolderConfig{
		ID: "docs", Label: "Documents", Path: "/data/docs", Type: "sendonly",
		Paused:  true,
		Devices: []syncthing.FolderDevice{{DeviceID: "AAAAAAA-BBBBBBB"}},
	}
	device := syncthing.DeviceConfig{DeviceID: "AAAAAAA-BBBBBBB", Name: "nas"}
	conn := syncthing.Connection{
		Connected: true, Paused: true, Address: "10.0.0.2:22000",
		Type: "tcp-client", Crypto: "tls1.3", InBytesTotal: 12, OutBytesTotal: 34,
	}
	stat := syncthing.DeviceStat{LastSeen: "2026-08-01T10:00:00Z"}
	status := syncthing.FolderStatus{
		State: "idle", StateChanged: "2026-08-01T10:00:00Z",
		GlobalFiles: 1, GlobalBytes: 2, LocalFiles: 3, LocalBytes: 4,
		NeedFiles: 5, NeedBytes: 6, InSyncFiles: 7, InSyncBytes: 8,
		GlobalDeleted: 9, LocalDeleted: 10, IgnorePatterns: true,
	}
	comp := syncthing.Completion{
		Completion: 99.5, GlobalBytes: 100, NeedBytes: 1,
		NeedItems: 2, NeedDeletes: 3, RemoteState: "valid",
	}

	return []struct {
		name             string
		concise, verbose any
	}{
		{"folder", Folder(folder, true), Folder(folder, false)},
		{"device", Device(device, conn, stat, true), Device(device, conn, stat, false)},
		{"folderStatus", FolderStatus(status, true), FolderStatus(status, false)},
		{"completion", Completion(comp, "nas", true, true), Completion(comp, "nas", true, false)},
		{"connection", Connection("AAAAAAA-BBBBBBB", conn, "nas", true), Connection("AAAAAAA-BBBBBBB", conn, "nas", false)},
	}
}

func TestConciseKeysAreSubsetOfVerbose(t *testing.T) {
	t.Parallel()

	for _, tc := range sampleProjections() {
		conciseKeys := jsonKeys(t, tc.concise)
		verboseKeys := jsonKeys(t, tc.verbose)
		if len(conciseKeys) >= len(verboseKeys) {
			t.Errorf("%s: concise has %d keys, verbose %d; concise must be strictly smaller",
				tc.name, len(conciseKeys), len(verboseKeys))
		}
		for k := range conciseKeys {
			if _, ok := verboseKeys[k]; !ok {
				t.Errorf("%s: concise key %q missing from verbose output", tc.name, k)
			}
		}
	}
}

func TestProjectionsAreDeterministic(t *testing.T) {
	t.Parallel()

	for _, tc := range sampleProjections() {
		for _, v := range []any{tc.concise, tc.verbose} {
			first, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("%s: marshal: %v", tc.name, err)
			}
			second, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("%s: marshal: %v", tc.name, err)
			}
			if string(first) != string(second) {
				t.Errorf("%s: repeated formatting differs:\n%s\n%s", tc.name, first, second)
			}
		}
	}
}
