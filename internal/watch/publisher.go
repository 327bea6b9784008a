package watch

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docgallery/internal/build"
	"git.home.luguber.info/inful/docgallery/internal/foundation/errors"
)

// BuildEvent is the message published after every watch-mode build, letting
// downstream consumers (site deployers, cache invalidators) react to changes.
type BuildEvent struct {
	BuildID      string    `json:"build_id"`
	SourceCommit string    `json:"source_commit,omitempty"`
	Succeeded    bool      `json:"succeeded"`
	Documents    int       `json:"documents"`
	Examples     int       `json:"examples"`
	PagesWritten int       `json:"pages_written"`
	PagesPurged  int       `json:"pages_purged"`
	DurationMS   int64     `json:"duration_ms"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Publisher sends build events to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to the NATS server. Connection failure is an error:
// event publishing was explicitly configured, so silently dropping events
// would be worse than refusing to start.
func NewPublisher(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	slog.Info("connected to NATS", slog.String("url", url), slog.String("subject", subject))
	return &Publisher{conn: conn, subject: subject}, nil
}

// PublishReport publishes the outcome of one build.
func (p *Publisher) PublishReport(r *build.Report, succeeded bool) error {
	event := BuildEvent{
		BuildID:      r.BuildID,
		SourceCommit: r.SourceCommit,
		Succeeded:    succeeded,
		Documents:    r.Documents,
		Examples:     r.Examples,
		PagesWritten: r.PagesWritten,
		PagesPurged:  r.PagesPurged,
		DurationMS:   r.Duration.Milliseconds(),
		FinishedAt:   r.StartedAt.Add(r.Duration),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode build event").Build()
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to publish build event").
			WithContext("subject", p.subject).
			Build()
	}
	return nil
}

// Close drains the connection so queued events flush before shutdown.
func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		slog.Warn("NATS drain failed", slog.String("error", err.Error()))
	}
}
