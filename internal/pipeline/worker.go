package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/extract"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/metasink"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/session"
)

// previewRunes caps the extracted-text preview attached to completed jobs.
const previewRunes = 1000

// metaRecordTimeout bounds the fire-and-forget metadata write.
const metaRecordTimeout = 15 * time.Second

// Worker processes a single extraction job.
type Worker struct {
	cascade *extract.Cascade
	meta    *metasink.Client
	log     *slog.Logger
}

func NewWorker(cascade *extract.Cascade, meta *metasink.Client, log *slog.Logger) *Worker {
	return &Worker{
		cascade: cascade,
		meta:    meta,
		log:     log,
	}
}

// Process runs the extraction cascade for a job and publishes the result
// into the owning session.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "document", job.Document)

	if job.Cancelled() {
		job.SetStatus(StatusFailed, "cancelled")
		return
	}

	// The quota was checked at upload, but uploads racing through the queue
	// could overshoot it. Re-check at the last moment.
	if job.Owner().QuotaExceeded() {
		job.AddError(session.QuotaMessage)
		job.SetStatus(StatusFailed, "quota")
		return
	}

	job.SetStatus(StatusExtracting, "extracting")
	doc := extract.Document{Name: job.Document, Data: job.FileData(), Kind: job.Kind}
	store, report, err := w.cascade.ProcessWithProgress(ctx, doc, func(phase string) {
		job.SetStatus(StatusExtracting, phase)
	})
	job.SetReport(report)
	job.SetFileData(nil)
	if err != nil {
		if job.Cancelled() {
			log.Info("extraction cancelled")
			job.AddError("cancelled by user")
			job.SetStatus(StatusFailed, "cancelled")
			return
		}
		log.Error("extraction failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "extraction")
		return
	}

	job.Owner().AddDocument(store)
	job.SetPreview(store.Preview(previewRunes))
	job.SetStatus(StatusCompleted, "done")
	log.Info("extraction complete",
		"method", string(store.MethodUsed()),
		"pages", store.PageCount(),
		"chars", store.TotalChars())

	if w.meta == nil {
		return
	}
	rec := metasink.ExtractionRecord{
		User:        job.Owner().User.Email,
		Document:    job.Document,
		ContentHash: job.ContentHash,
		Pages:       store.PageCount(),
		Chars:       store.TotalChars(),
		Method:      string(store.MethodUsed()),
	}
	// Best-effort: the record must survive job context cancellation but a
	// sink outage must never fail the extraction.
	go func() {
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metaRecordTimeout)
		defer cancel()
		if err := w.meta.RecordExtraction(mctx, rec); err != nil {
			log.Warn("metadata record failed", "error", err)
		}
	}()
}
