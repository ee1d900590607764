package syncthing

// Raw wire types for the subset of the Syncthing REST API this server
// consumes. Field sets mirror the daemon's JSON; fields we never read are
// omitted. Endpoints that must round-trip unknown fields (folder
// pause/resume) go through the generic map-decoding verbs instead.

// Config is the relevant slice of GET /rest/config.
type Config struct {
	Folders []FolderConfig `json:"folders"`
	Devices []DeviceConfig `json:"devices"`
}

// FolderConfig is one folder entry in the daemon configuration.
type FolderConfig struct {
	ID      string         `json:"id"`
	Label   string         `json:"label"`
	Path    string         `json:"path"`
	Type    string         `json:"type"`
	Paused  bool           `json:"paused"`
	Devices []FolderDevice `json:"devices"`
}

// FolderDevice is a device reference inside a folder config.
type FolderDevice struct {
	DeviceID string `json:"deviceID"`
}

// DeviceConfig is one device entry in the daemon configuration.
type DeviceConfig struct {
	DeviceID string `json:"deviceID"`
	Name     string `json:"name"`
}

// SystemStatus is GET /rest/system/status.
type SystemStatus struct {
	MyID   string `json:"myID"`
	Uptime int64  `json:"uptime"`
}

// Version is GET /rest/system/version.
type Version struct {
	Version string `json:"version"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

// Connections is GET /rest/system/connections.
type Connections struct {
	Connections map[string]Connection `json:"connections"`
}

// Connection is one device's connection state.
type Connection struct {
	Connected     bool   `json:"connected"`
	Paused        bool   `json:"paused"`
	Address       string `json:"address"`
	Type          string `json:"type"`
	Crypto        string `json:"crypto"`
	InBytesTotal  int64  `json:"inBytesTotal"`
	OutBytesTotal int64  `json:"outBytesTotal"`
}

// FolderStatus is GET /rest/db/status for one folder.
type FolderStatus struct {
	State          string `json:"state"`
	StateChanged   string `json:"stateChanged"`
	GlobalFiles    int64  `json:"globalFiles"`
	GlobalBytes    int64  `json:"globalBytes"`
	LocalFiles     int64  `json:"localFiles"`
	LocalBytes     int64  `json:"localBytes"`
	NeedFiles      int64  `json:"needFiles"`
	NeedBytes      int64  `json:"needBytes"`
	InSyncFiles    int64  `json:"inSyncFiles"`
	InSyncBytes    int64  `json:"inSyncBytes"`
	GlobalDeleted  int64  `json:"globalDeleted"`
	LocalDeleted   int64  `json:"localDeleted"`
	IgnorePatterns bool   `json:"ignorePatterns"`
}

// Completion is GET /rest/db/completion, either per folder+device or
// aggregated per device.
type Completion struct {
	Completion  float64 `json:"completion"`
	GlobalBytes int64   `json:"globalBytes"`
	NeedBytes   int64   `json:"needBytes"`
	NeedItems   int64   `json:"needItems"`
	NeedDeletes int64   `json:"needDeletes"`
	RemoteState string  `json:"remoteState"`
}

// DeviceStat is one entry of GET /rest/stats/device.
type DeviceStat struct {
	LastSeen string `json:"lastSeen"`
}

// FolderStat is one entry of GET /rest/stats/folder.
type FolderStat struct {
	LastScan string         `json:"lastScan"`
	LastFile map[string]any `json:"lastFile"`
}

// Ignores is GET /rest/db/ignores.
type Ignores struct {
	Ignore   []string `json:"ignore"`
	Expanded []string `json:"expanded"`
}

// FolderErrors is GET /rest/folder/errors.
type FolderErrors struct {
	Errors []FileError `json:"errors"`
}

// FileError is one failed item within a folder.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// LogLine is one entry of the system error or log list.
type LogLine struct {
	When    string `json:"when"`
	Message string `json:"message"`
}

// SystemErrors is GET /rest/system/error.
type SystemErrors struct {
	Errors []LogLine `json:"errors"`
}

// SystemLog is GET /rest/system/log.
type SystemLog struct {
	Messages []LogLine `json:"messages"`
}

// Event is one entry of GET /rest/events.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the fields we surface from change events.
type EventData struct {
	FolderID string `json:"folderID"`
	Path     string `json:"path"`
	Action   string `json:"action"`
}

// PendingDevice is one entry of GET /rest/cluster/pending/devices, keyed by
// device ID.
type PendingDevice struct {
	Time    string `json:"time"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// PendingFolder is one entry of GET /rest/cluster/pending/folders, keyed by
// folder ID.
type PendingFolder struct {
	OfferedBy map[string]PendingFolderOffer `json:"offeredBy"`
}

// PendingFolderOffer describes one device's offer of a folder.
type PendingFolderOffer struct {
	Time             string `json:"time"`
	Label            string `json:"label"`
	ReceiveEncrypted bool   `json:"receiveEncrypted"`
}

// RestartRequired is GET /rest/config/restart-required.
type RestartRequired struct {
	RequiresRestart bool `json:"requiresRestart"`
}

// Upgrade is GET /rest/system/upgrade.
type Upgrade struct {
	Latest string `json:"latest"`
	Newer  bool   `json:"newer"`
}

// DisplayLabel returns the folder label, falling back to the ID, matching how the
// daemon's own UI displays unlabelled folders.
func (f FolderConfig) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.ID
}

// EffectiveType returns the folder type, defaulting to sendreceive.
func (f FolderConfig) EffectiveType() string {
	if f.Type != "" {
		return f.Type
	}
	return "sendreceive"
}

// DeviceIDs returns the IDs of all devices sharing the folder.
func (f FolderConfig) DeviceIDs() []string {
	ids := make([]string, 0, len(f.Devices))
	for _, d := range f.Devices {
		ids = append(ids, d.DeviceID)
	}
	return ids
}

// RemoteDeviceIDs returns the folder's device IDs excluding the local device.
func (f FolderConfig) RemoteDeviceIDs(myID string) []string {
	ids := make([]string, 0, len(f.Devices))
	for _, d := range f.Devices {
		if d.DeviceID == myID {
			continue
		}
		ids = append(ids, d.DeviceID)
	}
	return ids
}

// FolderByID finds a folder config by ID.
func (c Config) FolderByID(id string) (FolderConfig, bool) {
	for _, f := range c.Folders {
		if f.ID == id {
			return f, true
		}
	}
	return FolderConfig{}, false
}
