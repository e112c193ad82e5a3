package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/pagetext"
)

// Failure reasons reported when no strategy produces usable text.
const (
	ReasonNoOCR     = "no OCR configured"
	ReasonTooLittle = "below minimum content"
	ReasonCorrupted = "corrupted/encrypted source"
)

// FailedError means every strategy the cascade could run came up short. The
// hint names what the user can do about it.
type FailedError struct {
	Reason string
	Hint   string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("extraction failed: %s (%s)", e.Reason, e.Hint)
}

func newFailedError(reason string) *FailedError {
	e := &FailedError{Reason: reason}
	switch reason {
	case ReasonNoOCR:
		e.Hint = "the document has no readable text layer and no OCR engine is configured"
	case ReasonTooLittle:
		e.Hint = "too little text was recovered; try re-scanning at a higher resolution"
	case ReasonCorrupted:
		e.Hint = "the file could not be opened; it may be corrupted or password protected"
	}
	return e
}

// Document is one uploaded file ready for extraction.
type Document struct {
	Name string
	Data []byte
	Kind Kind
}

// Attempt summarizes one strategy run for reporting.
type Attempt struct {
	Method     pagetext.Method `json:"method"`
	TotalChars int             `json:"total_chars"`
	Pages      int             `json:"pages"`
	ErrorPages int             `json:"error_pages"`
	Passed     bool            `json:"passed"`
	Failure    string          `json:"failure,omitempty"`
}

// Report records what the cascade tried and which attempt won.
type Report struct {
	Attempts []Attempt       `json:"attempts"`
	Winner   pagetext.Method `json:"winner,omitempty"`
	Pages    int             `json:"pages"`
	Chars    int             `json:"chars"`
	Duration time.Duration   `json:"duration_ns"`
}

// Status renders a one-line human-readable summary for the UI.
func (r *Report) Status() string {
	if r.Winner == "" {
		return fmt.Sprintf("extraction failed after %d attempt(s)", len(r.Attempts))
	}
	return fmt.Sprintf("extracted %d page(s), %d characters via %s", r.Pages, r.Chars, r.Winner)
}

// Config tunes the cascade.
type Config struct {
	// QualityThreshold is the character total at which an attempt is accepted
	// without escalating to a more expensive strategy.
	QualityThreshold int
	// DPI used when rasterizing pages for OCR.
	DPI int
	// Workers bounds concurrent per-page OCR within one attempt.
	Workers int
}

// Cascade escalates through extraction strategies, cheapest first, until one
// passes the quality gate. Strategies run strictly in sequence; pages within
// an OCR attempt run concurrently.
type Cascade struct {
	textLayer  TextLayerExtractor
	rasterizer Rasterizer
	localOCR   OCREngine
	cloudOCR   OCREngine
	cfg        Config
	log        *slog.Logger
}

func NewCascade(textLayer TextLayerExtractor, rasterizer Rasterizer, localOCR, cloudOCR OCREngine, cfg Config, log *slog.Logger) *Cascade {
	if cfg.QualityThreshold <= 0 {
		cfg.QualityThreshold = 500
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Cascade{
		textLayer:  textLayer,
		rasterizer: rasterizer,
		localOCR:   localOCR,
		cloudOCR:   cloudOCR,
		cfg:        cfg,
		log:        log,
	}
}

type strategy struct {
	method pagetext.Method
	run    func(ctx context.Context) (*pagetext.Store, error)
}

func phaseLabel(m pagetext.Method) string {
	switch m {
	case pagetext.TextLayer:
		return "reading text layer"
	case pagetext.LocalOCR:
		return "running local OCR"
	case pagetext.CloudOCR:
		return "running cloud OCR"
	default:
		return string(m)
	}
}

// Process runs the cascade over one document. On success the returned store
// carries the winning attempt's pages; on failure the error is a *FailedError
// naming the likely cause. The report is returned in both cases.
func (c *Cascade) Process(ctx context.Context, doc Document) (*pagetext.Store, *Report, error) {
	return c.ProcessWithProgress(ctx, doc, nil)
}

// ProcessWithProgress is Process with a callback that receives a short human
// phase line as each strategy starts. Used by job workers to surface live
// status to polling clients.
func (c *Cascade) ProcessWithProgress(ctx context.Context, doc Document, progress func(phase string)) (*pagetext.Store, *Report, error) {
	start := time.Now()
	report := &Report{}

	if doc.Kind != KindPDF && doc.Kind != KindImage {
		return nil, report, fmt.Errorf("%w: %q", ErrUnsupportedFormat, doc.Kind)
	}

	// Rasterization is shared between the OCR attempts and only happens once.
	var images []PageImage
	var imagesErr error
	rendered := false
	render := func(ctx context.Context) ([]PageImage, error) {
		if rendered {
			return images, imagesErr
		}
		rendered = true
		if doc.Kind == KindImage {
			images = []PageImage{{Page: 1, PNG: doc.Data}}
			return images, nil
		}
		if c.rasterizer == nil {
			imagesErr = fmt.Errorf("no rasterizer configured")
			return nil, imagesErr
		}
		images, imagesErr = c.rasterizer.Render(ctx, doc.Data, c.cfg.DPI)
		return images, imagesErr
	}

	var strategies []strategy
	if doc.Kind == KindPDF && c.textLayer != nil {
		strategies = append(strategies, strategy{pagetext.TextLayer, func(ctx context.Context) (*pagetext.Store, error) {
			return c.runTextLayer(ctx, doc)
		}})
	}
	if c.localOCR != nil {
		strategies = append(strategies, strategy{pagetext.LocalOCR, func(ctx context.Context) (*pagetext.Store, error) {
			return c.runOCR(ctx, doc, c.localOCR, pagetext.LocalOCR, render)
		}})
	}
	if c.cloudOCR != nil {
		strategies = append(strategies, strategy{pagetext.CloudOCR, func(ctx context.Context) (*pagetext.Store, error) {
			return c.runOCR(ctx, doc, c.cloudOCR, pagetext.CloudOCR, render)
		}})
	}

	if len(strategies) == 0 {
		report.Duration = time.Since(start)
		return nil, report, newFailedError(ReasonNoOCR)
	}

	log := c.log.With("document", doc.Name, "kind", doc.Kind)

	var best *pagetext.Store
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			report.Duration = time.Since(start)
			return nil, report, err
		}
		if progress != nil {
			progress(phaseLabel(s.method))
		}

		store, err := s.run(ctx)
		if err != nil {
			log.Warn("extraction attempt failed", "method", s.method, "error", err)
			report.Attempts = append(report.Attempts, Attempt{Method: s.method, Failure: err.Error()})
			continue
		}

		chars := store.TotalChars()
		passed := chars >= c.cfg.QualityThreshold
		report.Attempts = append(report.Attempts, Attempt{
			Method:     s.method,
			TotalChars: chars,
			Pages:      store.PageCount(),
			ErrorPages: store.PageCount() - store.OkPageCount(),
			Passed:     passed,
		})
		log.Info("extraction attempt done", "method", s.method, "pages", store.PageCount(), "chars", chars, "passed_gate", passed)

		// Strictly more characters wins; a tie keeps the earlier, cheaper
		// attempt.
		if best == nil || chars > best.TotalChars() {
			best = store
		}
		if passed {
			break
		}
	}

	report.Duration = time.Since(start)

	if best == nil {
		// Every attempt failed before producing any pages.
		return nil, report, newFailedError(ReasonCorrupted)
	}
	if !best.IsUsable() {
		reason := ReasonTooLittle
		if doc.Kind == KindPDF && c.localOCR == nil && c.cloudOCR == nil {
			reason = ReasonNoOCR
		}
		return nil, report, newFailedError(reason)
	}

	best.SetSize(int64(len(doc.Data)))
	report.Winner = best.MethodUsed()
	report.Pages = best.PageCount()
	report.Chars = best.TotalChars()
	log.Info("extraction complete", "method", report.Winner, "pages", report.Pages, "chars", report.Chars)
	return best, report, nil
}

// runTextLayer reads the embedded text layer into a store. Per-page failures
// become error entries; they never abort sibling pages.
func (c *Cascade) runTextLayer(ctx context.Context, doc Document) (*pagetext.Store, error) {
	pages, err := c.textLayer.Extract(ctx, doc.Data)
	if err != nil {
		return nil, err
	}
	store := pagetext.New(doc.Name)
	store.SetMethod(pagetext.TextLayer)
	for _, p := range pages {
		if p.Err != nil {
			store.PutError(p.Page, p.Err.Error(), pagetext.TextLayer)
			continue
		}
		store.Put(p.Page, CleanText(p.Text), pagetext.TextLayer)
	}
	return store, nil
}

// runOCR rasterizes the document (once, shared across OCR attempts) and
// recognizes pages with bounded concurrency. A failed page is recorded and
// does not cancel its siblings.
func (c *Cascade) runOCR(ctx context.Context, doc Document, engine OCREngine, method pagetext.Method, render func(context.Context) ([]PageImage, error)) (*pagetext.Store, error) {
	images, err := render(ctx)
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no pages to recognize")
	}

	store := pagetext.New(doc.Name)
	store.SetMethod(method)

	type pageResult struct {
		page int
		text string
		err  error
	}
	results := make(chan pageResult, len(images))
	sem := make(chan struct{}, c.cfg.Workers)

	for _, img := range images {
		if img.Err != nil {
			results <- pageResult{page: img.Page, err: img.Err}
			continue
		}
		sem <- struct{}{}
		go func(img PageImage) {
			defer func() { <-sem }()
			text, err := engine.Recognize(ctx, img.PNG)
			results <- pageResult{page: img.Page, text: text, err: err}
		}(img)
	}

	for range images {
		r := <-results
		if r.err != nil {
			store.PutError(r.page, r.err.Error(), method)
			continue
		}
		store.Put(r.page, CleanText(r.text), method)
	}
	return store, nil
}
