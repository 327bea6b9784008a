package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyDoc        = "document"
	KeyExample    = "example"
	KeyTag        = "tag"
	KeyLine       = "line"
	KeyPath       = "path"
	KeyCount      = "count"
	KeyCommit     = "commit"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Document(docname string) slog.Attr { return slog.String(KeyDoc, docname) }
func Example(id string) slog.Attr      { return slog.String(KeyExample, id) }
func Tag(name string) slog.Attr        { return slog.String(KeyTag, name) }
func Line(n int) slog.Attr             { return slog.Int(KeyLine, n) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Commit(sha string) slog.Attr      { return slog.String(KeyCommit, sha) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
