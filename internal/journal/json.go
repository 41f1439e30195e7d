package journal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"glean/internal/history"

	"gopkg.in/natefinch/lumberjack.v2"
)

// recordHandler is a slog handler writing one flat JSON object per record, with a
// "2006-01-02 15:04:05" time and no level or message.
type recordHandler struct {
	out io.Writer
}

func newRecordHandler(out io.Writer) *recordHandler {
	return &recordHandler{out: out}
}

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+1)
	attrs["time"] = r.Time.Format("2006-01-02 15:04:05")

	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "" && a.Value.Any() != nil {
			attrs[a.Key] = a.Value.Any()
		}
		return true
	})

	data, err := json.Marshal(attrs)
	if err != nil {
		return err
	}

	_, err = h.out.Write(append(data, '\n'))
	return err
}

// WithAttrs returns the handler unchanged; records carry all their attributes.
func (h *recordHandler) WithAttrs(_ []slog.Attr) slog.Handler {
	return h
}

// WithGroup returns the handler unchanged; groups are not used by the journal.
func (h *recordHandler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *recordHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// JsonJournal writes evaluations as JSON lines to a size-rotated, compressed file.
type JsonJournal struct {
	lumberjack *lumberjack.Logger
	logger     *slog.Logger
}

// NewJsonJournal creates a journal writing to file, rotating at maxSize megabytes
// and keeping maxBackups old files.
func NewJsonJournal(file string, maxSize, maxBackups int) *JsonJournal {
	j := JsonJournal{}
	j.lumberjack = &lumberjack.Logger{
		Filename:   file,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	j.logger = slog.New(newRecordHandler(j.lumberjack))
	return &j
}

// Append writes e. Safe for concurrent use.
func (j *JsonJournal) Append(e history.Entry) {
	j.logger.Info("",
		"id", e.ID,
		"submission", e.SubmissionID,
		"evaluated_at", e.EvaluatedAt,
		"result", e.Result,
	)
}

// Close flushes and closes the current file.
func (j *JsonJournal) Close() {
	j.lumberjack.Close()
}
