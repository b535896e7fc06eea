package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stampy-lens/internal/app/models"
	"stampy-lens/internal/app/render"
	"stampy-lens/internal/app/repositories"
	"stampy-lens/internal/pkg/metrics"
)

type renderCall struct {
	kind      string
	html      string
	text      string
	citations []models.DisplayCitation
}

// fakeRenderer records every call; once detached it refuses them.
type fakeRenderer struct {
	mu       sync.Mutex
	calls    []renderCall
	refused  []renderCall
	detached bool
	onCall   func(renderCall)
}

func (f *fakeRenderer) record(c renderCall) error {
	f.mu.Lock()
	if f.detached {
		f.refused = append(f.refused, c)
		f.mu.Unlock()
		return render.ErrDetached
	}
	f.calls = append(f.calls, c)
	hook := f.onCall
	f.mu.Unlock()
	if hook != nil {
		hook(c)
	}
	return nil
}

func (f *fakeRenderer) ShowLoading() error { return f.record(renderCall{kind: "loading"}) }

func (f *fakeRenderer) RenderAnswer(html string) error {
	return f.record(renderCall{kind: "answer", html: html})
}

func (f *fakeRenderer) RenderSources(citations []models.DisplayCitation) error {
	return f.record(renderCall{kind: "sources", citations: citations})
}

func (f *fakeRenderer) ShowError(text string) error {
	return f.record(renderCall{kind: "error", text: text})
}

func (f *fakeRenderer) detach() {
	f.mu.Lock()
	f.detached = true
	f.mu.Unlock()
}

func (f *fakeRenderer) kinds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.kind)
	}
	return out
}

func (f *fakeRenderer) last(kind string) renderCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].kind == kind {
			return f.calls[i]
		}
	}
	return renderCall{}
}

func record(data string) string {
	return "data: " + data + "\n\n"
}

func staticUpstream(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestAnalyzer(endpoint string) *Analyzer {
	options := NewOptionsService(repositories.NewMemoryOptionsRepository(), endpoint)
	return NewAnalyzer(options, NewStampyClient(5*time.Second))
}

const citationOne = `{"state":"citations","citations":[{"reference":"1","text":"AI Safety###Intro###Alignment is hard","url":"https://example.org/a","title":"Alignment","authors":["Ann"]}]}`

func TestAnalyzeRendersCitedAnswer(t *testing.T) {
	srv := staticUpstream(t, record(citationOne)+record(`{"state":"streaming","content":"Answer [1]."}`))
	r := &fakeRenderer{}

	state := newTestAnalyzer(srv.URL).Analyze(context.Background(), "what", r)

	assert.Equal(t, models.StateDone, state)
	assert.Equal(t, []string{"loading", "answer", "sources"}, r.kinds())

	answer := r.last("answer").html
	assert.Equal(t, `<p>Answer <span class="citation-ref" data-citation="Alignment%20is%20hard">[1]</span>.</p>`, answer)

	sources := r.last("sources").citations
	require.Len(t, sources, 1)
	assert.Equal(t, "1", sources[0].DisplayRef)
	assert.Equal(t, "1", sources[0].Reference)
	assert.Contains(t, render.FormatSources(sources), "<strong>[1]</strong>")
}

func TestAnalyzeSendsQueryAndStableSession(t *testing.T) {
	var mu sync.Mutex
	var bodies []models.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.ChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		bodies = append(bodies, req)
		mu.Unlock()
	}))
	defer srv.Close()

	analyzer := newTestAnalyzer(srv.URL)
	analyzer.Analyze(context.Background(), "first", &fakeRenderer{})
	analyzer.Analyze(context.Background(), "second", &fakeRenderer{})

	require.Len(t, bodies, 2)
	assert.Equal(t, "first", bodies[0].Query)
	assert.Equal(t, "second", bodies[1].Query)
	assert.True(t, bodies[0].Stream)
	assert.NotNil(t, bodies[0].Settings)
	assert.NotEmpty(t, bodies[0].SessionId)
	assert.Equal(t, bodies[0].SessionId, bodies[1].SessionId)
}

func TestAnalyzeHoldsRenderUntilCitationsUsed(t *testing.T) {
	srv := staticUpstream(t,
		record(citationOne)+
			record(`{"state":"streaming","content":"Intro "}`)+
			record(`{"state":"streaming","content":"without markers, "}`)+
			record(`{"state":"streaming","content":"then [1]"}`))
	r := &fakeRenderer{}

	newTestAnalyzer(srv.URL).Analyze(context.Background(), "q", r)

	assert.Equal(t, []string{"loading", "answer", "sources"}, r.kinds())
	assert.Contains(t, r.last("answer").html, "Intro without markers, then")
}

func TestAnalyzeRerendersEachChunk(t *testing.T) {
	srv := staticUpstream(t,
		record(`{"state":"citations","citations":[{"reference":"1","title":"one"},{"reference":"2","title":"two"}]}`)+
			record(`{"state":"streaming","content":"See [2]"}`)+
			record(`{"state":"streaming","content":" and [1]."}`))
	r := &fakeRenderer{}

	newTestAnalyzer(srv.URL).Analyze(context.Background(), "q", r)

	assert.Equal(t, []string{"loading", "answer", "sources", "answer", "sources"}, r.kinds())
	sources := r.last("sources").citations
	require.Len(t, sources, 2)
	assert.Equal(t, []string{"2", "1"}, []string{sources[0].Reference, sources[1].Reference})
	assert.Equal(t, []string{"1", "2"}, []string{sources[0].DisplayRef, sources[1].DisplayRef})
}

func TestAnalyzeCitationsReplacePreviousSet(t *testing.T) {
	srv := staticUpstream(t,
		record(`{"state":"citations","citations":[{"reference":"1","title":"one"},{"reference":"2","title":"two"}]}`)+
			record(`{"state":"streaming","content":"a [1] b [2]"}`)+
			record(`{"state":"citations","citations":[{"reference":"2","title":"two"}]}`)+
			record(`{"state":"streaming","content":" c"}`))
	r := &fakeRenderer{}

	newTestAnalyzer(srv.URL).Analyze(context.Background(), "q", r)

	sources := r.last("sources").citations
	require.Len(t, sources, 1)
	assert.Equal(t, "2", sources[0].Reference)
	assert.Equal(t, "1", sources[0].DisplayRef)
	assert.Contains(t, r.last("answer").html, "a [1] b <span")
}

func TestAnalyzeRendersTrailingCitationsAtEnd(t *testing.T) {
	srv := staticUpstream(t,
		record(`{"state":"streaming","content":"Answer [1]."}`)+
			record(citationOne))
	r := &fakeRenderer{}

	state := newTestAnalyzer(srv.URL).Analyze(context.Background(), "q", r)

	assert.Equal(t, models.StateDone, state)
	assert.Equal(t, []string{"loading", "answer", "sources"}, r.kinds())
	assert.Len(t, r.last("sources").citations, 1)
}

func TestAnalyzeAnswerWithoutCitations(t *testing.T) {
	srv := staticUpstream(t, record(`{"state":"streaming","content":"Plain answer."}`)+"event: close\n\n"+record(`{"state":"error","error":"ignored"}`))
	r := &fakeRenderer{}

	state := newTestAnalyzer(srv.URL).Analyze(context.Background(), "q", r)

	assert.Equal(t, models.StateDone, state)
	assert.Equal(t, []string{"loading", "answer", "sources"}, r.kinds())
	assert.Equal(t, "<p>Plain answer.</p>", r.last("answer").html)
	assert.Empty(t, r.last("sources").citations)
}

func TestAnalyzeMalformedRecordStopsRendering(t *testing.T) {
	srv := staticUpstream(t,
		record(citationOne)+
			record(`{"state":"streaming","content":"Answer [1]."}`)+
			record(`{broken`)+
			record(`{"state":"streaming","content":" more [1]"}`))
	r := &fakeRenderer{}

	state := newTestAnalyzer(srv.URL).Analyze(context.Background(), "q", r)

	assert.Equal(t, models.StateError, state)
	assert.Equal(t, []string{"loading", "answer", "sources", "error"}, r.kinds())
	assert.Equal(t, "Error: failed to decode analysis stream. Make sure the API server is running at "+srv.URL, r.last("error").text)
	assert.NotContains(t, r.last("answer").html, "more")
}

func TestAnalyzeUpstreamErrorVerbatim(t *testing.T) {
	srv := staticUpstream(t,
		record(`{"state":"error","error":"model overloaded"}`)+
			record(`{"state":"streaming","content":"never [1]"}`))
	r := &fakeRenderer{}

	state := newTestAnalyzer(srv.URL).Analyze(context.Background(), "q", r)

	assert.Equal(t, models.StateError, state)
	assert.Equal(t, []string{"loading", "error"}, r.kinds())
	assert.Equal(t, "Error: model overloaded. Make sure the API server is running at "+srv.URL, r.last("error").text)
}

func TestAnalyzeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	r := &fakeRenderer{}

	state := newTestAnalyzer(srv.URL).Analyze(context.Background(), "q", r)

	assert.Equal(t, models.StateError, state)
	assert.Equal(t, "Error: API error: 502 - Bad Gateway. Make sure the API server is running at "+srv.URL, r.last("error").text)
}

func TestAnalyzeIgnoresEventsAfterPopupRemoval(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, record(citationOne)+record(`{"state":"streaming","content":"First [1]."}`))
		w.(http.Flusher).Flush()
		<-release
		_, _ = io.WriteString(w, record(`{"state":"streaming","content":" Second [1]."}`)+record(`{"state":"error","error":"late failure"}`))
	}))
	defer srv.Close()

	r := &fakeRenderer{}
	var once sync.Once
	r.onCall = func(c renderCall) {
		if c.kind == "sources" {
			once.Do(func() {
				r.detach()
				close(release)
			})
		}
	}

	state := newTestAnalyzer(srv.URL).Analyze(context.Background(), "q", r)

	assert.Equal(t, models.StateDone, state)
	assert.Equal(t, []string{"loading", "answer", "sources"}, r.kinds())
	for _, c := range r.refused {
		assert.NotEqual(t, "error", c.kind)
	}
}

func TestAnalyzeStopsSilentlyOnCancel(t *testing.T) {
	entered := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, record(`{"state":"streaming","content":"partial"}`))
		w.(http.Flusher).Flush()
		close(entered)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-entered
		cancel()
	}()
	r := &fakeRenderer{}

	state := newTestAnalyzer(srv.URL).Analyze(ctx, "q", r)

	assert.Equal(t, models.StateDone, state)
	assert.NotContains(t, r.kinds(), "error")
}

func TestAnalyzeWithPopupRemovedBeforeStart(t *testing.T) {
	srv := staticUpstream(t, record(`{"state":"streaming","content":"x"}`))
	p := newPopup("page", nil)
	p.Remove()

	state := newTestAnalyzer(srv.URL).Analyze(context.Background(), "q", p)

	assert.Equal(t, models.StateDone, state)
}

func TestErrorTextIncludesEndpoint(t *testing.T) {
	text := errorText(&UpstreamError{Message: "boom"}, "http://host/chat")
	assert.True(t, strings.HasPrefix(text, "Error: boom."))
	assert.True(t, strings.HasSuffix(text, "http://host/chat"))
}

func firstEventSamples(t *testing.T) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.FirstEventLatency.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestAnalyzeObservesFirstEventOnce(t *testing.T) {
	srv := staticUpstream(t,
		record(`{"state":"citations","citations":[]}`)+
			record(citationOne)+
			record(`{"state":"streaming","content":"Answer [1]."}`)+
			record(`{"state":"streaming","content":" More."}`))
	before := firstEventSamples(t)

	newTestAnalyzer(srv.URL).Analyze(context.Background(), "q", &fakeRenderer{})

	assert.Equal(t, before+1, firstEventSamples(t))
}
