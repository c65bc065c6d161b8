package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/theirongolddev/subtrack/internal/logging"
	"github.com/theirongolddev/subtrack/internal/model"

	"github.com/shopspring/decimal"
)

type fakeGenerator struct {
	reply  string
	err    error
	calls  int
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.reply, f.err
}

func sampleSubs() []model.Subscription {
	return []model.Subscription{{
		ID:         "a",
		Name:       "Netflix",
		Price:      decimal.RequireFromString("15.49"),
		DayOfMonth: 5,
		Category:   model.CategoryEntertainment,
		Color:      model.CategoryEntertainment.Color(),
	}}
}

const goodReply = `{"insights":[
 {"title":"Bundle streaming","description":"Combine services to save.","type":"saving"},
 {"title":"Early month","description":"Most charges land before the 10th.","type":"warning"},
 {"title":"Healthy","description":"Spend is modest.","type":"positive"}]}`

func TestAnalyze_MissingCredential(t *testing.T) {
	a := New(nil, logging.Discard())
	got := a.Analyze(context.Background(), sampleSubs())
	if len(got) != 1 || got[0] != FallbackMissingCredential {
		t.Errorf("Analyze = %+v, want missing-credential fallback", got)
	}
	if got[0].Type != model.InsightWarning {
		t.Errorf("Type = %q, want warning", got[0].Type)
	}
}

func TestAnalyze_EmptyListMakesNoCall(t *testing.T) {
	gen := &fakeGenerator{reply: goodReply}
	got := New(gen, logging.Discard()).Analyze(context.Background(), nil)
	if gen.calls != 0 {
		t.Errorf("generator calls = %d, want 0", gen.calls)
	}
	if len(got) != 1 || got[0] != FallbackNoSubscriptions {
		t.Errorf("Analyze = %+v, want no-subscriptions fallback", got)
	}
}

func TestAnalyze_Success(t *testing.T) {
	gen := &fakeGenerator{reply: goodReply}
	got := New(gen, logging.Discard()).Analyze(context.Background(), sampleSubs())

	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Type != model.InsightSaving || got[2].Title != "Healthy" {
		t.Errorf("insights = %+v", got)
	}
	if !strings.Contains(gen.prompt, `"name":"Netflix"`) || !strings.Contains(gen.prompt, "exactly 3 insights") {
		t.Errorf("prompt missing subscriptions or instructions:\n%s", gen.prompt)
	}
}

func TestAnalyze_FailuresFallBack(t *testing.T) {
	cases := map[string]*fakeGenerator{
		"transport error": {err: errors.New("connection refused")},
		"empty body":      {reply: "  "},
		"not json":        {reply: "Here are some tips!"},
		"no insights":     {reply: `{"insights":[]}`},
		"unknown type":    {reply: `{"insights":[{"title":"x","description":"y","type":"neutral"}]}`},
		"missing title":   {reply: `{"insights":[{"title":"","description":"y","type":"saving"}]}`},
	}
	for name, gen := range cases {
		t.Run(name, func(t *testing.T) {
			got := New(gen, logging.Discard()).Analyze(context.Background(), sampleSubs())
			if len(got) != 1 || got[0] != FallbackAnalysisFailed {
				t.Fatalf("Analyze = %+v, want analysis-failed fallback", got)
			}
			if got[0].Description == FallbackMissingCredential.Description {
				t.Error("failure fallback must differ from missing-credential fallback")
			}
		})
	}
}

func TestParseReply_StripsFencesAndCaps(t *testing.T) {
	text := "```json\n" + `{"insights":[
 {"title":"a","description":"a","type":"saving"},
 {"title":"b","description":"b","type":"saving"},
 {"title":"c","description":"c","type":"saving"},
 {"title":"d","description":"d","type":"saving"}]}` + "\n```"
	got, err := ParseReply(text)
	if err != nil {
		t.Fatalf("ParseReply: %v", err)
	}
	if len(got) != MaxInsights || got[2].Title != "c" {
		t.Errorf("ParseReply = %+v, want first 3", got)
	}
}

func TestParseReply_MalformedIsTyped(t *testing.T) {
	if _, err := ParseReply("{"); !errors.Is(err, ErrMalformedReply) {
		t.Errorf("ParseReply({) err = %v, want ErrMalformedReply", err)
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"caf\u00e9 au lait", 4, "caf..."},
		{"\u20ac\u20ac", 4, "\u20ac..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) = %q is not valid UTF-8", tt.in, tt.n, got)
		}
	}
}
