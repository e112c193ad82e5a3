package answer

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/assemble"
)

// Answer is the reply to one question with its bookkeeping.
type Answer struct {
	Text string `json:"text"`
	Annotation
	ContextTruncated bool  `json:"context_truncated"`
	ElapsedMs        int64 `json:"elapsed_ms"`
	Tokens           int   `json:"tokens,omitempty"`
}

// Service drives the ask path: build the prompt, make exactly one completion
// call, annotate the answer, record the latency.
type Service struct {
	completer Completer
	stats     *LLMStats
	window    int
	log       *slog.Logger
}

// NewService wires a completer to the ask path. historyWindow caps how many
// recent turns are forwarded to the model; statsWindow bounds the latency
// sample age.
func NewService(completer Completer, historyWindow int, statsWindow time.Duration, log *slog.Logger) *Service {
	return &Service{
		completer: completer,
		stats:     NewLLMStats(statsWindow),
		window:    historyWindow,
		log:       log,
	}
}

func (s *Service) Stats() *LLMStats { return s.stats }

// Model reports the completer's model name when it exposes one.
func (s *Service) Model() string {
	if m, ok := s.completer.(interface{ Model() string }); ok {
		return m.Model()
	}
	return ""
}

// Ask answers one question against the assembled context. User errors come
// back before any completion call is made; upstream failures come back as
// *CompletionError with a readable detail.
func (s *Service) Ask(ctx context.Context, pkg *assemble.Package, question string, history []Turn) (Answer, error) {
	req, err := BuildPrompt(pkg, question, s.windowed(history))
	if err != nil {
		return Answer{}, err
	}

	s.log.Info("completion request",
		"question_chars", utf8.RuneCountInString(question),
		"history_turns", len(req.History),
		"context_tokens", pkg.EstimatedTokens(),
		"context_truncated", pkg.Truncated)

	start := time.Now()
	completion, err := s.completer.Complete(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		s.log.Error("completion failed", "error", err, "elapsed_ms", elapsed.Milliseconds())
		return Answer{}, err
	}
	s.stats.Record(elapsed.Milliseconds(), completion.TotalTokens)

	ans := Answer{
		Text:             completion.Text,
		Annotation:       Annotate(completion.Text),
		ContextTruncated: pkg.Truncated,
		ElapsedMs:        elapsed.Milliseconds(),
		Tokens:           completion.TotalTokens,
	}
	s.log.Info("completion done",
		"elapsed_ms", ans.ElapsedMs,
		"answer_chars", ans.Chars,
		"citations", len(ans.Citations),
		"not_found", ans.NotFound)
	return ans, nil
}

// windowed keeps the most recent turns within the configured window.
func (s *Service) windowed(history []Turn) []Turn {
	if s.window <= 0 || len(history) <= s.window {
		return history
	}
	return history[len(history)-s.window:]
}
