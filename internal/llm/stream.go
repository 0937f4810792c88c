// Package llm holds what the streaming chat adapters share: a line-oriented
// frame stream over an HTTP response body.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"smallchain/internal/domain"
)

const maxLineSize = 1 << 20

// Decision tells LineStream what to do with a decoded line.
type Decision int

const (
	// Emit hands the frame to the caller.
	Emit Decision = iota
	// Skip drops the line.
	Skip
	// EmitAndStop hands the frame over, then ends the stream.
	EmitAndStop
	// Stop ends the stream without a frame.
	Stop
)

// LineDecoder turns one non-empty line into a frame.
type LineDecoder func(line []byte) (domain.Frame, Decision, error)

// LineStream reads newline-delimited frames from an HTTP body. It is not
// safe for concurrent Recv calls.
type LineStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	decode  LineDecoder
	done    bool
}

func NewLineStream(body io.ReadCloser, decode LineDecoder) *LineStream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &LineStream{body: body, scanner: sc, decode: decode}
}

// Recv returns the next frame or io.EOF.
func (s *LineStream) Recv() (domain.Frame, error) {
	for !s.done {
		if !s.scanner.Scan() {
			s.done = true
			if err := s.scanner.Err(); err != nil {
				return domain.Frame{}, err
			}
			break
		}
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		frame, decision, err := s.decode(line)
		if err != nil {
			s.done = true
			return domain.Frame{}, err
		}
		switch decision {
		case Skip:
			continue
		case Stop:
			s.done = true
			return domain.Frame{}, io.EOF
		case EmitAndStop:
			s.done = true
		}
		return frame, nil
	}
	return domain.Frame{}, io.EOF
}

func (s *LineStream) Close() error { return s.body.Close() }

// Post sends a JSON request and returns the response body when the status is
// 2xx. Other statuses become errors carrying a prefix of the body.
func Post(ctx context.Context, hc *http.Client, url string, body []byte, header http.Header) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp.Body, nil
}
