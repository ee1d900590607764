// Package replication derives the safe-to-remove classification for shared
// folders. The rule gates a human or agent decision to delete local data and
// must hold exactly: a folder is safe only when at least one remote device
// holds a fully valid replica AND the folder is idle AND it is not paused.
package replication

import (
	"sort"

	"github.com/flemzord/syncmcp/internal/format"
	"github.com/flemzord/syncmcp/internal/syncthing"
)

// DeviceResult is one remote device's completion outcome for a folder.
// Unreachable devices carry no completion record but still count toward the
// device total.
type DeviceResult struct {
	DeviceID    string
	Name        string
	Connected   bool
	Unreachable bool
	Completion  *syncthing.Completion
}

// FullyReplicated reports whether this device holds a complete, valid
// replica. Exact equality on 100: a partially synced device never counts,
// even at 99.9%.
func (d DeviceResult) FullyReplicated() bool {
	return !d.Unreachable &&
		d.Completion != nil &&
		d.Completion.Completion == 100 &&
		d.Completion.RemoteState == "valid"
}

// Entry is one folder's replication data, assembled by the tool layer from
// best-effort queries.
type Entry struct {
	Folder  syncthing.FolderConfig
	Status  *syncthing.FolderStatus
	Devices []DeviceResult

	// StatusUnreachable marks a folder whose own status query failed. Such
	// folders are reported as not-safe and excluded from the reclaimable
	// total, but still appear in the ordered output.
	StatusUnreachable bool
}

// FullyReplicatedCount counts devices holding a complete valid replica.
func (e Entry) FullyReplicatedCount() int {
	n := 0
	for _, d := range e.Devices {
		if d.FullyReplicated() {
			n++
		}
	}
	return n
}

// State returns the folder's sync state, "unknown" when the status record
// is missing.
func (e Entry) State() string {
	if e.Status == nil || e.Status.State == "" {
		return "unknown"
	}
	return e.Status.State
}

// LocalBytes returns the folder's local byte count, zero when unknown.
func (e Entry) LocalBytes() int64 {
	if e.Status == nil {
		return 0
	}
	return e.Status.LocalBytes
}

// Safe reports whether the local copy can be removed without losing the
// only replica.
func (e Entry) Safe() bool {
	return !e.StatusUnreachable &&
		e.FullyReplicatedCount() >= 1 &&
		e.State() == "idle" &&
		!e.Folder.Paused
}

// SortEntries orders a report: safe folders first, then descending local
// byte count within each safety tier, so the best reclamation candidates
// surface first. Ties break on folder ID for stable output.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		si, sj := entries[i].Safe(), entries[j].Safe()
		if si != sj {
			return si
		}
		bi, bj := entries[i].LocalBytes(), entries[j].LocalBytes()
		if bi != bj {
			return bi > bj
		}
		return entries[i].Folder.ID < entries[j].Folder.ID
	})
}

// Reclaimable sums local bytes over safe folders only.
func Reclaimable(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		if e.Safe() {
			total += e.LocalBytes()
		}
	}
	return total
}

// EntryConcise is the compact report row. Its keys are a strict subset of
// EntryVerbose so consumers can switch tiers without relearning names.
type EntryConcise struct {
	ID                 string `json:"id"`
	Label              string `json:"label"`
	SafeToRemove       bool   `json:"safeToRemove"`
	LocalSize          string `json:"localSize"`
	State              string `json:"state"`
	FullyReplicatedOn  int    `json:"fullyReplicatedOn"`
	TotalRemoteDevices int    `json:"totalRemoteDevices"`
	Error              string `json:"error,omitempty"`
}

// EntryVerbose is the full report row, including the per-device completion
// projections.
type EntryVerbose struct {
	ID                 string `json:"id"`
	Label              string `json:"label"`
	Path               string `json:"path"`
	Type               string `json:"type"`
	Paused             bool   `json:"paused"`
	State              string `json:"state"`
	LocalBytes         int64  `json:"localBytes"`
	LocalSize          string `json:"localSize"`
	GlobalSize         string `json:"globalSize"`
	SafeToRemove       bool   `json:"safeToRemove"`
	FullyReplicatedOn  int    `json:"fullyReplicatedOn"`
	TotalRemoteDevices int    `json:"totalRemoteDevices"`
	Devices            []any  `json:"devices"`
	Error              string `json:"error,omitempty"`
}

// Project renders an entry at the requested tier.
func Project(e Entry, concise bool) any {
	errMarker := ""
	if e.StatusUnreachable {
		errMarker = "unreachable"
	}

	if concise {
		return EntryConcise{
			ID:                 e.Folder.ID,
			Label:              e.Folder.DisplayLabel(),
			SafeToRemove:       e.Safe(),
			LocalSize:          format.Bytes(e.LocalBytes()),
			State:              e.State(),
			FullyReplicatedOn:  e.FullyReplicatedCount(),
			TotalRemoteDevices: len(e.Devices),
			Error:              errMarker,
		}
	}

	devices := make([]any, 0, len(e.Devices))
	for _, d := range e.Devices {
		if d.Unreachable {
			devices = append(devices, format.UnreachableCompletion{
				Device:      d.Name,
				Connected:   d.Connected,
				Error:       "unreachable",
				RemoteState: "unknown",
			})
			continue
		}
		devices = append(devices, format.Completion(*d.Completion, d.Name, d.Connected, false))
	}

	var globalBytes int64
	if e.Status != nil {
		globalBytes = e.Status.GlobalBytes
	}
	return EntryVerbose{
		ID:                 e.Folder.ID,
		Label:              e.Folder.DisplayLabel(),
		Path:               e.Folder.Path,
		Type:               e.Folder.EffectiveType(),
		Paused:             e.Folder.Paused,
		State:              e.State(),
		LocalBytes:         e.LocalBytes(),
		LocalSize:          format.Bytes(e.LocalBytes()),
		GlobalSize:         format.Bytes(globalBytes),
		SafeToRemove:       e.Safe(),
		FullyReplicatedOn:  e.FullyReplicatedCount(),
		TotalRemoteDevices: len(e.Devices),
		Devices:            devices,
		Error:              errMarker,
	}
}

// Summary aggregates a full report.
type Summary struct {
	Total       int    `json:"total"`
	Safe        int    `json:"safe"`
	Reclaimable string `json:"reclaimable"`
}

// Summarize computes the report header over already-sorted entries.
func Summarize(entries []Entry) Summary {
	safe := 0
	for _, e := range entries {
		if e.Safe() {
			safe++
		}
	}
	return Summary{
		Total:       len(entries),
		Safe:        safe,
		Reclaimable: format.Bytes(Reclaimable(entries)),
	}
}
