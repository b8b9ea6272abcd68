package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/boelens/internal/document"
)

// Worker executes action jobs.
type Worker struct {
	backend Backend
	docs    document.Source
	llm     Summarizer
	log     *slog.Logger
	backoff func(int) time.Duration
}

func NewWorker(be Backend, docs document.Source, llm Summarizer, log *slog.Logger, backoff func(int) time.Duration) *Worker {
	if backoff == nil {
		backoff = Backoff
	}
	return &Worker{backend: be, docs: docs, llm: llm, log: log, backoff: backoff}
}

// Process runs a job to completion, retrying retryable failures.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "kind", job.Kind, "doc_id", job.DocID, "user_id", job.UserID)
	job.SetStatus(StatusRunning)

	var err error
	for attempt := range MaxRetries {
		job.IncrAttempts()
		err = w.run(ctx, job)
		if err == nil || !IsRetryable(err) {
			break
		}
		log.Warn("retryable action error", "attempt", attempt, "error", err)
		job.SetStatus(StatusRetrying)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			err = ctx.Err()
		}
		if ctx.Err() != nil {
			break
		}
	}

	if err != nil {
		log.Error("action failed", "error", err)
		job.Fail(err.Error())
		return
	}
	log.Info("action complete")
	job.SetStatus(StatusCompleted)
}

func (w *Worker) run(ctx context.Context, job *Job) error {
	switch job.Kind {
	case KindSave:
		return w.backend.SaveDocument(ctx, job.UserID, job.DocID)

	case KindExport:
		// The backend renders the PDF from its own copy of the document, so
		// session annotations never reach the export.
		data, err := w.backend.ExportPDF(ctx, job.UserID, job.DocID)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return errors.New("export returned an empty document")
		}
		job.SetResult(data, "application/pdf")
		return nil

	case KindSummarize:
		if w.llm == nil {
			return errors.New("summaries are not configured")
		}
		doc, err := w.docs.Get(ctx, job.DocID)
		if err != nil {
			return fmt.Errorf("load document: %w", err)
		}
		text := document.TextContent(doc.Content)
		if text == "" {
			return errors.New("document has no text")
		}
		s, err := w.llm.Summarize(ctx, doc.Title, text)
		if err != nil {
			return err
		}
		job.SetSummary(s)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, job.Kind)
}
