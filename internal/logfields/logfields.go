package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyURL        = "url"
	KeyDocID      = "doc_id"
	KeyDocType    = "doc_type"
	KeyReason     = "reason"
	KeyCount      = "count"
	KeyEncoding   = "encoding"
	KeyError      = "error"
	KeyExportRoot = "export_root"
	KeyDryRun     = "dry_run"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func DocID(id string) slog.Attr       { return slog.String(KeyDocID, id) }
func DocType(t string) slog.Attr      { return slog.String(KeyDocType, t) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Encoding(e string) slog.Attr     { return slog.String(KeyEncoding, e) }
func ExportRoot(r string) slog.Attr   { return slog.String(KeyExportRoot, r) }
func DryRun(v bool) slog.Attr         { return slog.Bool(KeyDryRun, v) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
