// Package format produces token-efficient projections of Syncthing API
// responses. Every projection comes in two fidelity tiers: concise output is
// always a strict field subset of verbose output for the same input.
package format

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// CharacterLimit caps tool response size. Payloads past it are cut
	// with pagination guidance.
	CharacterLimit = 25_000

	// ShortIDLen is the display length for truncated device IDs. Display
	// only: write operations always take full IDs.
	ShortIDLen = 7
)

// byteUnits in ascending magnitude. The loop divides until under 1024, so
// the last unit absorbs everything oversized.
var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// JSON serializes v, compact when concise, indented otherwise. Marshal
// failures are reported in-band; projections are plain structs and maps so
// this is a can't-happen path.
func JSON(v any, concise bool) string {
	var (
		raw []byte
		err error
	)
	if concise {
		raw, err = json.Marshal(v)
	} else {
		raw, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Sprintf(`{"error":"encoding response: %v"}`, err)
	}
	return string(raw)
}

// ShortID truncates a device ID to its first block.
func ShortID(deviceID string) string {
	if len(deviceID) > ShortIDLen {
		return deviceID[:ShortIDLen]
	}
	return deviceID
}

// Bytes renders a byte count in the largest unit under which the magnitude
// is < 1024, to one decimal place.
func Bytes(n int64) string {
	v := float64(n)
	for _, unit := range byteUnits[:len(byteUnits)-1] {
		if v < 1024 && v > -1024 {
			return fmt.Sprintf("%.1f %s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.1f %s", v, byteUnits[len(byteUnits)-1])
}

// Truncate cuts text exceeding limit, preferring the nearest preceding
// newline that keeps at least 80% of the limit, and appends a notice with
// the original length and guidance to narrow the query. The cut never
// splits a multibyte UTF-8 sequence.
func Truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	end := limit
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}
	cut := text[:end]
	if nl := strings.LastIndexByte(cut, '\n'); nl > int(float64(limit)*0.8) {
		cut = cut[:nl]
	}
	return cut + fmt.Sprintf(
		"\n... truncated (%d chars, limit %d). Use pagination or filters to narrow results.",
		len(text), limit)
}

// TruncateDefault applies Truncate with the standard character limit.
func TruncateDefault(text string) string {
	return Truncate(text, CharacterLimit)
}

// Round2 rounds a percentage to two decimals, as completion values are
// displayed.
func Round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
