package sse

import (
	"errors"
	"io"
)

// Scanner composes the decode, framing, and field-parsing stages over an
// io.Reader, yielding one event payload per Scan in the style of
// bufio.Scanner:
//
//	sc := sse.NewScanner(resp.Body)
//	for sc.Scan() {
//	    handle(sc.Payload())
//	}
//	if err := sc.Err(); err != nil { ... }
//
// Scanning stops cleanly at the [DoneSentinel] payload or when the reader
// reports EOF. A Scanner is not restartable and not safe for concurrent use.
type Scanner struct {
	r       io.Reader
	dec     TextDecoder
	framer  Framer
	queue   []string
	buf     []byte
	payload string
	err     error
	done    bool
}

// NewScanner returns a Scanner reading SSE chunks from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: r, buf: make([]byte, 4096)}
}

// Scan advances to the next payload. It returns false at end of stream
// (the [DONE] sentinel, EOF, or a read error).
func (s *Scanner) Scan() bool {
	for {
		for len(s.queue) > 0 {
			line := s.queue[0]
			s.queue = s.queue[1:]
			payload, ok := Data(line)
			if !ok {
				continue
			}
			if payload == DoneSentinel {
				s.done = true
				s.queue = nil
				return false
			}
			s.payload = payload
			return true
		}
		if s.done {
			return false
		}

		n, err := s.r.Read(s.buf)
		if n > 0 {
			s.queue = append(s.queue, s.framer.Feed(s.dec.Decode(s.buf[:n]))...)
		}
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			// A trailing record without a newline is not data; the
			// decoder flush only matters for diagnostics.
			s.dec.Flush()
		}
	}
}

// Payload returns the payload produced by the last successful Scan.
func (s *Scanner) Payload() string {
	return s.payload
}

// Err returns the first non-EOF error encountered, if any.
func (s *Scanner) Err() error {
	return s.err
}
