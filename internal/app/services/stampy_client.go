package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	log "github.com/sirupsen/logrus"

	"stampy-lens/internal/app/models"
)

// TransportError 请求失败或返回非 2xx
type TransportError struct {
	StatusCode int
	StatusText string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error: %d - %s", e.StatusCode, e.StatusText)
	}
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StampyClient 分析服务客户端
type StampyClient struct {
	client        *req.Client
	headerTimeout time.Duration
}

// NewStampyClient headerTimeout 只限制等待响应头的时间，流本身不设超时
func NewStampyClient(headerTimeout time.Duration) *StampyClient {
	client := req.C().
		SetTimeout(0).
		DisableAutoReadResponse().
		DisableAutoDecode().
		SetCommonHeader("Accept", "text/event-stream")
	return &StampyClient{client: client, headerTimeout: headerTimeout}
}

// ChatStream 发起流式分析请求，返回未读取的响应体，调用方负责关闭
func (c *StampyClient) ChatStream(ctx context.Context, endpoint string, body models.ChatRequest) (io.ReadCloser, error) {
	ctx, cancel := context.WithCancel(ctx)
	var timer *time.Timer
	if c.headerTimeout > 0 {
		timer = time.AfterFunc(c.headerTimeout, cancel)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(&body).
		Post(endpoint)
	if timer != nil && !timer.Stop() && err == nil {
		// 计时器已触发，body 随 ctx 一起失效
		err = context.DeadlineExceeded
	}
	if err != nil {
		cancel()
		if resp != nil && resp.Response != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		cancel()
		log.WithFields(log.Fields{"endpoint": endpoint, "status": resp.StatusCode}).Warn("analysis endpoint rejected request")
		return nil, &TransportError{StatusCode: resp.StatusCode, StatusText: statusText(resp.Response)}
	}
	return &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}, nil
}

// statusText 取响应行中的原因短语，缺省时使用标准描述
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
