package format

import "github.com/flemzord/syncmcp/internal/syncthing"

// Paired projection structs per entity. The concise form is deliberately a
// strict subset of the verbose form so agents can switch tiers without
// relearning field names.

// FolderConcise is the compact folder projection.
type FolderConcise struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Type    string `json:"type"`
	Paused  bool   `json:"paused"`
	Devices int    `json:"devices"`
}

// FolderVerbose adds the path and full device ID list.
type FolderVerbose struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Path    string   `json:"path"`
	Type    string   `json:"type"`
	Paused  bool     `json:"paused"`
	Devices []string `json:"devices"`
}

// Folder projects a folder config at the requested tier.
func Folder(cfg syncthing.FolderConfig, concise bool) any {
	if concise {
		return FolderConcise{
			ID:      cfg.ID,
			Label:   cfg.DisplayLabel(),
			Type:    cfg.EffectiveType(),
			Paused:  cfg.Paused,
			Devices: len(cfg.Devices),
		}
	}
	return FolderVerbose{
		ID:      cfg.ID,
		Label:   cfg.DisplayLabel(),
		Path:    cfg.Path,
		Type:    cfg.EffectiveType(),
		Paused:  cfg.Paused,
		Devices: cfg.DeviceIDs(),
	}
}

// DeviceConcise is the compact device projection. The ID is display
// truncated but keeps the verbose key name so the field sets nest.
type DeviceConcise struct {
	DeviceID  string `json:"deviceID"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Address   string `json:"address"`
}

// DeviceVerbose carries the full device ID plus connection detail.
type DeviceVerbose struct {
	DeviceID      string `json:"deviceID"`
	Name          string `json:"name"`
	Connected     bool   `json:"connected"`
	Paused        bool   `json:"paused"`
	Address       string `json:"address"`
	Type          string `json:"type"`
	Crypto        string `json:"crypto"`
	InBytesTotal  int64  `json:"inBytesTotal"`
	OutBytesTotal int64  `json:"outBytesTotal"`
	LastSeen      string `json:"lastSeen"`
}

// Device projects a device config with its connection and stats records.
func Device(dev syncthing.DeviceConfig, conn syncthing.Connection, stat syncthing.DeviceStat, concise bool) any {
	name := dev.Name
	if name == "" {
		name = ShortID(dev.DeviceID)
	}
	if concise {
		return DeviceConcise{
			DeviceID:  ShortID(dev.DeviceID),
			Name:      name,
			Connected: conn.Connected,
			Address:   conn.Address,
		}
	}
	return DeviceVerbose{
		DeviceID:      dev.DeviceID,
		Name:          name,
		Connected:     conn.Connected,
		Paused:        conn.Paused,
		Address:       conn.Address,
		Type:          conn.Type,
		Crypto:        conn.Crypto,
		InBytesTotal:  conn.InBytesTotal,
		OutBytesTotal: conn.OutBytesTotal,
		LastSeen:      stat.LastSeen,
	}
}

// FolderStatusConcise shows state plus file counts; byte counts appear
// human-readable only.
type FolderStatusConcise struct {
	State       string `json:"state"`
	GlobalFiles int64  `json:"globalFiles"`
	GlobalSize  string `json:"globalSize"`
	LocalFiles  int64  `json:"localFiles"`
	LocalSize   string `json:"localSize"`
	NeedFiles   int64  `json:"needFiles"`
	NeedSize    string `json:"needSize"`
}

// FolderStatusVerbose adds raw byte counts alongside the human-readable
// ones, in-sync and deleted counts, the ignore flag, and the state
// timestamp.
type FolderStatusVerbose struct {
	State          string `json:"state"`
	StateChanged   string `json:"stateChanged"`
	GlobalFiles    int64  `json:"globalFiles"`
	GlobalBytes    int64  `json:"globalBytes"`
	GlobalSize     string `json:"globalSize"`
	LocalFiles     int64  `json:"localFiles"`
	LocalBytes     int64  `json:"localBytes"`
	LocalSize      string `json:"localSize"`
	NeedFiles      int64  `json:"needFiles"`
	NeedBytes      int64  `json:"needBytes"`
	NeedSize       string `json:"needSize"`
	InSyncFiles    int64  `json:"inSyncFiles"`
	InSyncBytes    int64  `json:"inSyncBytes"`
	GlobalDeleted  int64  `json:"globalDeleted"`
	LocalDeleted   int64  `json:"localDeleted"`
	IgnorePatterns bool   `json:"ignorePatterns"`
}

// FolderStatus projects a db/status record at the requested tier.
func FolderStatus(st syncthing.FolderStatus, concise bool) any {
	if concise {
		return FolderStatusConcise{
			State:       st.State,
			GlobalFiles: st.GlobalFiles,
			GlobalSize:  Bytes(st.GlobalBytes),
			LocalFiles:  st.LocalFiles,
			LocalSize:   Bytes(st.LocalBytes),
			NeedFiles:   st.NeedFiles,
			NeedSize:    Bytes(st.NeedBytes),
		}
	}
	return FolderStatusVerbose{
		State:          st.State,
		StateChanged:   st.StateChanged,
		GlobalFiles:    st.GlobalFiles,
		GlobalBytes:    st.GlobalBytes,
		GlobalSize:     Bytes(st.GlobalBytes),
		LocalFiles:     st.LocalFiles,
		LocalBytes:     st.LocalBytes,
		LocalSize:      Bytes(st.LocalBytes),
		NeedFiles:      st.NeedFiles,
		NeedBytes:      st.NeedBytes,
		NeedSize:       Bytes(st.NeedBytes),
		InSyncFiles:    st.InSyncFiles,
		InSyncBytes:    st.InSyncBytes,
		GlobalDeleted:  st.GlobalDeleted,
		LocalDeleted:   st.LocalDeleted,
		IgnorePatterns: st.IgnorePatterns,
	}
}

// CompletionConcise is one device's completion record for a folder.
type CompletionConcise struct {
	Device      string  `json:"device"`
	Connected   bool    `json:"connected"`
	Completion  float64 `json:"completion"`
	NeedSize    string  `json:"needSize"`
	RemoteState string  `json:"remoteState"`
}

// CompletionVerbose adds raw byte and item counts.
type CompletionVerbose struct {
	Device      string  `json:"device"`
	Connected   bool    `json:"connected"`
	Completion  float64 `json:"completion"`
	GlobalBytes int64   `json:"globalBytes"`
	GlobalSize  string  `json:"globalSize"`
	NeedBytes   int64   `json:"needBytes"`
	NeedSize    string  `json:"needSize"`
	NeedItems   int64   `json:"needItems"`
	NeedDeletes int64   `json:"needDeletes"`
	RemoteState string  `json:"remoteState"`
}

// Completion projects a db/completion record at the requested tier.
func Completion(comp syncthing.Completion, deviceName string, connected, concise bool) any {
	state := comp.RemoteState
	if state == "" {
		state = "unknown"
	}
	if concise {
		return CompletionConcise{
			Device:      deviceName,
			Connected:   connected,
			Completion:  Round2(comp.Completion),
			NeedSize:    Bytes(comp.NeedBytes),
			RemoteState: state,
		}
	}
	return CompletionVerbose{
		Device:      deviceName,
		Connected:   connected,
		Completion:  Round2(comp.Completion),
		GlobalBytes: comp.GlobalBytes,
		GlobalSize:  Bytes(comp.GlobalBytes),
		NeedBytes:   comp.NeedBytes,
		NeedSize:    Bytes(comp.NeedBytes),
		NeedItems:   comp.NeedItems,
		NeedDeletes: comp.NeedDeletes,
		RemoteState: state,
	}
}

// UnreachableCompletion is the substitute entry when a device's completion
// query fails. It never aborts the surrounding aggregation.
type UnreachableCompletion struct {
	Device      string `json:"device"`
	Connected   bool   `json:"connected"`
	Completion  any    `json:"completion"`
	Error       string `json:"error,omitempty"`
	RemoteState string `json:"remoteState,omitempty"`
}

// ConnectionConcise is one entry of the connection listing.
type ConnectionConcise struct {
	DeviceName string `json:"deviceName"`
	Connected  bool   `json:"connected"`
	Address    string `json:"address"`
	Type       string `json:"type"`
}

// ConnectionVerbose carries the full connection record.
type ConnectionVerbose struct {
	DeviceID      string `json:"deviceID"`
	DeviceName    string `json:"deviceName"`
	Connected     bool   `json:"connected"`
	Paused        bool   `json:"paused"`
	Address       string `json:"address"`
	Type          string `json:"type"`
	Crypto        string `json:"crypto"`
	InBytesTotal  int64  `json:"inBytesTotal"`
	OutBytesTotal int64  `json:"outBytesTotal"`
}

// Connection projects a single connection entry at the requested tier.
func Connection(deviceID string, conn syncthing.Connection, name string, concise bool) any {
	if name == "" {
		name = ShortID(deviceID)
	}
	if concise {
		return ConnectionConcise{
			DeviceName: name,
			Connected:  conn.Connected,
			Address:    conn.Address,
			Type:       conn.Type,
		}
	}
	return ConnectionVerbose{
		DeviceID:      deviceID,
		DeviceName:    name,
		Connected:     conn.Connected,
		Paused:        conn.Paused,
		Address:       conn.Address,
		Type:          conn.Type,
		Crypto:        conn.Crypto,
		InBytesTotal:  conn.InBytesTotal,
		OutBytesTotal: conn.OutBytesTotal,
	}
}
