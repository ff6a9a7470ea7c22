package relay

import (
	"bufio"
	"bytes"
	"io"
	"sync"

	"tonbridge/internal/domain"
)

const maxEventBytes = 1 << 20

// stream reads server-sent events from a response body.
type stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	lastID  string

	closeOnce sync.Once
	closeErr  error
}

func newStream(body io.ReadCloser) *stream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64<<10), maxEventBytes)
	return &stream{body: body, scanner: sc}
}

var _ domain.EventStream = (*stream)(nil)

// Next blocks until a complete event arrives. It returns io.EOF when the
// relay ends the stream cleanly. A trailing event without its terminating
// blank line is discarded.
func (s *stream) Next() (domain.RelayEvent, error) {
	var (
		ev      domain.RelayEvent
		data    bytes.Buffer
		hasData bool
	)
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			if !hasData {
				ev = domain.RelayEvent{}
				continue
			}
			if ev.Event == "" {
				ev.Event = "message"
			}
			ev.ID = s.lastID
			ev.Data = bytes.Clone(data.Bytes())
			return ev, nil
		}
		if line[0] == ':' {
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))
		switch string(field) {
		case "event":
			ev.Event = string(value)
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.Write(value)
			hasData = true
		case "id":
			if bytes.IndexByte(value, 0) < 0 {
				s.lastID = string(value)
			}
		}
	}
	if err := s.scanner.Err(); err != nil {
		return domain.RelayEvent{}, classify(err)
	}
	return domain.RelayEvent{}, io.EOF
}

func (s *stream) Close() error {
	s.closeOnce.Do(func() { s.closeErr = s.body.Close() })
	return s.closeErr
}
