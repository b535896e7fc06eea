package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"stampy-lens/internal/app/models"
	"stampy-lens/internal/app/render"
	"stampy-lens/internal/pkg/citation"
	"stampy-lens/internal/pkg/metrics"
	"stampy-lens/internal/pkg/stream"
)

const decodeFailureMessage = "failed to decode analysis stream"

// UpstreamError 分析服务在流中声明的错误
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }

// Analyzer 驱动一次分析：请求分析服务，逐条处理流事件并刷新弹窗
type Analyzer struct {
	options IOptions
	client  *StampyClient
}

func NewAnalyzer(options IOptions, client *StampyClient) *Analyzer {
	return &Analyzer{options: options, client: client}
}

// Analyze 分析 query 并渲染到 r，返回结束时的状态。错误不会返回给调用方，
// 而是显示在弹窗中；弹窗移除或 ctx 取消时静默结束。
func (a *Analyzer) Analyze(ctx context.Context, query string, r render.Renderer) models.AnalysisState {
	endpoint := a.options.APIEndpoint(ctx)
	run := &analysisRun{
		renderer: r,
		endpoint: endpoint,
		state:    models.StateIdle,
		started:  time.Now(),
		logger:   log.WithFields(log.Fields{"endpoint": endpoint}),
	}

	if !run.draw(r.ShowLoading()) {
		return run.abandon()
	}
	run.state = models.StateAwaitingFirstByte

	sessionID, err := a.options.InstallID(ctx)
	if err != nil {
		run.logger.Warnf("install id unavailable, using a one-off id: %s", err.Error())
		sessionID = uuid.NewString()
	}

	body, err := a.client.ChatStream(ctx, endpoint, models.NewChatRequest(query, sessionID))
	if err != nil {
		return run.fail(ctx, err)
	}
	defer body.Close()

	dec := stream.NewDecoder(body)
	for {
		ev, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return run.finish()
		}
		if err != nil {
			return run.fail(ctx, err)
		}
		if stop := run.handle(ctx, ev); stop {
			return run.state
		}
	}
}

type analysisRun struct {
	renderer render.Renderer
	endpoint string
	state    models.AnalysisState
	started  time.Time
	logger   *log.Entry

	firstSeen bool

	content   strings.Builder
	citations []models.Citation

	rendered    bool
	lastAnswer  string
	lastSources string
	detached    bool
}

// handle 处理一条事件，返回 true 表示分析已结束
func (r *analysisRun) handle(ctx context.Context, ev models.StreamEvent) bool {
	metrics.StreamEventsTotal.WithLabelValues(eventLabel(ev.State)).Inc()
	if !r.firstSeen {
		r.firstSeen = true
		metrics.FirstEventLatency.Observe(time.Since(r.started).Seconds())
	}

	switch ev.State {
	case models.EventStateStreaming:
		r.state = models.StateStreaming
		r.content.WriteString(ev.Content)
		if !r.refresh(false) {
			r.abandon()
			return true
		}
	case models.EventStateCitations:
		// 每次都整体替换，不合并
		r.citations = ev.Citations
	case models.EventStateError:
		r.fail(ctx, &UpstreamError{Message: ev.Error})
		return true
	default:
		r.logger.Debugf("ignore stream event with state %q", ev.State)
	}
	return false
}

// refresh 根据累计内容和当前引用重新渲染。流式过程中没有被引用的来源时保留上一次渲染，
// final 为 true 时总是渲染，保证流末尾的引用更新和无引用的回答都能显示。
// 返回 false 表示弹窗已移除。
func (r *analysisRun) refresh(final bool) bool {
	content := r.content.String()
	if !final && strings.TrimSpace(citation.Normalize(content)) == "" {
		return true
	}
	used := citation.Select(content, r.citations)
	if !final && len(used) == 0 {
		return true
	}

	answer := render.FormatAnswer(content, used)
	sources := render.FormatSources(used)
	if r.rendered && answer == r.lastAnswer && sources == r.lastSources {
		return true
	}
	if !r.draw(r.renderer.RenderAnswer(answer)) || !r.draw(r.renderer.RenderSources(used)) {
		return false
	}
	r.rendered = true
	r.lastAnswer, r.lastSources = answer, sources
	return true
}

func (r *analysisRun) finish() models.AnalysisState {
	if !r.refresh(true) {
		return r.abandon()
	}
	r.state = models.StateDone
	metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeDone).Inc()
	r.logger.WithField("duration", time.Since(r.started).String()).Info("analysis finished")
	return r.state
}

func (r *analysisRun) fail(ctx context.Context, err error) models.AnalysisState {
	if r.detached || ctx.Err() != nil {
		r.logger.Debugf("analysis stopped after popup removal: %v", err)
		return r.abandon()
	}

	r.state = models.StateError
	metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeError).Inc()
	r.logger.Errorf("analysis failed: %v", err)
	r.draw(r.renderer.ShowError(errorText(err, r.endpoint)))
	return r.state
}

func (r *analysisRun) abandon() models.AnalysisState {
	r.detached = true
	r.state = models.StateDone
	metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeAbandoned).Inc()
	return r.state
}

// draw 检查渲染结果，弹窗已移除时返回 false
func (r *analysisRun) draw(err error) bool {
	if err == nil {
		return true
	}
	if !errors.Is(err, render.ErrDetached) {
		r.logger.Warnf("render fail, dropping popup: %v", err)
	}
	r.detached = true
	return false
}

// errorText 弹窗中显示的错误信息
func errorText(err error, endpoint string) string {
	msg := err.Error()
	var decodeErr *stream.DecodeError
	if errors.As(err, &decodeErr) {
		msg = decodeFailureMessage
	}
	return fmt.Sprintf("Error: %s. Make sure the API server is running at %s", msg, endpoint)
}

func eventLabel(state string) string {
	switch state {
	case models.EventStateStreaming, models.EventStateCitations, models.EventStateError:
		return state
	}
	return "other"
}
