package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakif/forum/internal/observer"
)

// appendTimeout bounds one journal write. The request that caused the event
// may already be gone, so the request context is not used for the deadline.
const appendTimeout = 5 * time.Second

// Journal is the write listener that persists every committed write. A
// failed append is logged and dropped: the write it describes has already
// happened and cannot be undone.
type Journal struct {
	repo   EventRepository
	logger *slog.Logger
}

func NewJournal(repo EventRepository, logger *slog.Logger) *Journal {
	return &Journal{repo: repo, logger: logger}
}

func (j *Journal) OnWrite(ctx context.Context, e observer.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), appendTimeout)
	defer cancel()

	rec, err := j.repo.Append(ctx, e)
	if err != nil {
		j.logger.Error("journal append failed",
			slog.String("kind", string(e.Kind)),
			slog.String("entity", e.Entity.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	j.logger.Debug("journal appended", slog.String("id", rec.ID), slog.String("kind", string(e.Kind)))
}
