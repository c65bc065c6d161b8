// Package advisor turns a subscription list into short budgeting tips using
// the Anthropic Messages API, falling back to fixed insights on any failure.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/theirongolddev/subtrack/internal/model"
)

// MaxInsights caps how many insights a single analysis returns.
const MaxInsights = 3

var (
	// FallbackMissingCredential is returned when no API key is configured.
	FallbackMissingCredential = model.Insight{
		Title:       "API Key Missing",
		Description: "Please configure your Anthropic API key to receive smart insights.",
		Type:        model.InsightWarning,
	}
	// FallbackNoSubscriptions is returned for an empty list.
	FallbackNoSubscriptions = model.Insight{
		Title:       "No Subscriptions Yet",
		Description: "Add a subscription to receive insights about your spending.",
		Type:        model.InsightWarning,
	}
	// FallbackAnalysisFailed is returned when the service call or its reply fails.
	FallbackAnalysisFailed = model.Insight{
		Title:       "Analysis Failed",
		Description: "Could not generate insights at this time.",
		Type:        model.InsightWarning,
	}
)

// ErrMalformedReply indicates the model answered with something other than
// the expected insight JSON.
var ErrMalformedReply = errors.New("advisor: malformed reply")

// Generator sends a prompt to a language model and returns its text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Advisor produces insights. A nil generator means no credential.
type Advisor struct {
	gen Generator
	log *slog.Logger
}

// New creates an advisor. Pass a nil generator when no API key is set.
func New(gen Generator, logger *slog.Logger) *Advisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Advisor{gen: gen, log: logger.With("component", "advisor")}
}

// Configured reports whether a generator is available.
func (a *Advisor) Configured() bool {
	return a.gen != nil
}

// Analyze returns up to MaxInsights insights for subs. It never fails; any
// problem yields exactly one warning fallback.
func (a *Advisor) Analyze(ctx context.Context, subs []model.Subscription) []model.Insight {
	if a.gen == nil {
		a.log.Info("no API key configured, skipping analysis")
		return []model.Insight{FallbackMissingCredential}
	}
	if len(subs) == 0 {
		return []model.Insight{FallbackNoSubscriptions}
	}

	prompt, err := BuildPrompt(subs)
	if err != nil {
		a.log.Warn("building prompt failed", "error", err)
		return []model.Insight{FallbackAnalysisFailed}
	}

	reply, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		a.log.Warn("insight request failed", "error", err)
		return []model.Insight{FallbackAnalysisFailed}
	}

	insights, err := ParseReply(reply)
	if err != nil {
		a.log.Warn("insight reply rejected", "error", err, "reply", truncate(reply, 200))
		return []model.Insight{FallbackAnalysisFailed}
	}
	a.log.Debug("insights generated", "count", len(insights))
	return insights
}

const instructions = `Return exactly 3 insights.
1. A potential saving tip.
2. A spending pattern observation.
3. An overall budget health comment.

Keep descriptions concise (under 20 words).
Each insight has a "type" of "saving", "warning" or "positive".
Respond with JSON only, shaped as {"insights":[{"title":"...","description":"...","type":"..."}]}.`

// BuildPrompt embeds subs as JSON ahead of the analysis instructions.
func BuildPrompt(subs []model.Subscription) (string, error) {
	data, err := json.Marshal(subs)
	if err != nil {
		return "", fmt.Errorf("advisor: encoding subscriptions: %w", err)
	}

	var b strings.Builder
	b.WriteString("Analyze the following list of monthly subscriptions and provide financial insights.\n")
	b.WriteString("Subscriptions: ")
	b.Write(data)
	b.WriteString("\n\n")
	b.WriteString(instructions)
	return b.String(), nil
}

type reply struct {
	Insights []model.Insight `json:"insights"`
}

// ParseReply validates a model reply. Code fences around the JSON are
// tolerated. Extra insights beyond MaxInsights are dropped.
func ParseReply(text string) ([]model.Insight, error) {
	text = stripFences(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrMalformedReply)
	}

	var r reply
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if len(r.Insights) == 0 {
		return nil, fmt.Errorf("%w: no insights", ErrMalformedReply)
	}
	if len(r.Insights) > MaxInsights {
		r.Insights = r.Insights[:MaxInsights]
	}
	for i, in := range r.Insights {
		if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Description) == "" {
			return nil, fmt.Errorf("%w: insight %d is missing text", ErrMalformedReply, i)
		}
		if !in.Type.Valid() {
			return nil, fmt.Errorf("%w: insight %d has type %q", ErrMalformedReply, i, in.Type)
		}
	}
	return r.Insights, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop a language tag such as "json".
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
