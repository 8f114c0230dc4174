package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySlotKey = "slot_key"
	KeyBackend = "backend"
	KeyDay     = "day"
	KeyTask    = "task"
	KeyEntryID = "entry_id"
	KeyCount   = "count"
	KeyPercent = "percent"
	KeyPath    = "path"
	KeyAddr    = "addr"
	KeyError   = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func SlotKey(k string) slog.Attr  { return slog.String(KeySlotKey, k) }
func Backend(b string) slog.Attr  { return slog.String(KeyBackend, b) }
func Day(n int) slog.Attr         { return slog.Int(KeyDay, n) }
func Task(id string) slog.Attr    { return slog.String(KeyTask, id) }
func EntryID(id string) slog.Attr { return slog.String(KeyEntryID, id) }
func Count(n int) slog.Attr       { return slog.Int(KeyCount, n) }
func Percent(p int) slog.Attr     { return slog.Int(KeyPercent, p) }
func Path(p string) slog.Attr     { return slog.String(KeyPath, p) }
func Addr(a string) slog.Attr     { return slog.String(KeyAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
