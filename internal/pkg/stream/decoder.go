// Package stream 解析分析服务返回的按行分隔的事件流
package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"stampy-lens/internal/app/models"
)

const (
	closeLine  = "event: close"
	dataPrefix = "data: "
)

// DecodeError 完整的一条记录不是合法 JSON
type DecodeError struct {
	Record string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode stream record: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decoder 逐条拉取事件，一次读取末尾的半行会保留到后续数据到达
type Decoder struct {
	r       *bufio.Reader
	pending strings.Builder
	eof     bool
	err     error
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next 返回下一条事件。流结束或读到 close 行时返回 io.EOF，记录格式错误时返回
// *DecodeError，两者之后都会重复返回。连接中断时没有以空行结束的记录会被丢弃。
func (d *Decoder) Next() (models.StreamEvent, error) {
	if d.err != nil {
		return models.StreamEvent{}, d.err
	}
	for {
		if d.eof {
			d.pending.Reset()
			d.err = io.EOF
			return models.StreamEvent{}, io.EOF
		}

		line, err := d.r.ReadString('\n')
		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.err = fmt.Errorf("read stream: %w", err)
				return models.StreamEvent{}, d.err
			}
			d.eof = true
		}
		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")

		switch {
		case strings.HasPrefix(line, closeLine):
			d.pending.Reset()
			d.err = io.EOF
			return models.StreamEvent{}, io.EOF
		case strings.HasPrefix(line, dataPrefix):
			d.pending.WriteString(line[len(dataPrefix):])
		case line != "":
			d.pending.WriteString(line)
		case d.pending.Len() > 0:
			return d.flush()
		}
	}
}

func (d *Decoder) flush() (models.StreamEvent, error) {
	record := d.pending.String()
	d.pending.Reset()

	var ev models.StreamEvent
	if err := json.Unmarshal([]byte(record), &ev); err != nil {
		d.err = &DecodeError{Record: record, Err: err}
		return models.StreamEvent{}, d.err
	}
	return ev, nil
}
