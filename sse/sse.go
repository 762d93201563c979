// Package sse implements the receive side of the Server-Sent Events framing
// used by AG-UI agent endpoints: a long-lived response body carrying
// newline-terminated records, with event payloads on `data:` lines.
//
// The stages are usable independently ([TextDecoder], [Framer], [Data]) or
// composed over an io.Reader via [Scanner]. All stages preserve arrival
// order and carry partial input across chunk boundaries, so the results are
// identical no matter how the transport fragments the byte stream.
package sse

import (
	"strings"
	"unicode/utf8"
)

const (
	// dataPrefix is the SSE field prefix for event payloads. Other fields
	// (event:, id:, comments) are not used by this protocol and are ignored.
	dataPrefix = "data: "

	// DoneSentinel is the payload that signals end-of-stream. It is
	// consumed by the scanner and never surfaces as a payload.
	DoneSentinel = "[DONE]"
)

// TextDecoder converts a sequence of byte chunks into UTF-8 text. A
// multi-byte character split across two chunks decodes correctly once both
// chunks have arrived; invalid byte sequences become U+FFFD. Decode never
// fails.
type TextDecoder struct {
	pending []byte
}

// Decode appends chunk to any held-back bytes and returns the decoded text,
// retaining a trailing incomplete multi-byte sequence for the next call.
func (d *TextDecoder) Decode(chunk []byte) string {
	b := chunk
	if len(d.pending) > 0 {
		b = append(d.pending, chunk...)
		d.pending = nil
	}

	cut := len(b)
	// Hold back a trailing rune fragment. Scan back at most one rune's
	// worth of bytes for the last rune start; continuation bytes further
	// back than that are simply invalid and get replaced.
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if !utf8.RuneStart(c) {
			continue
		}
		if !utf8.FullRune(b[len(b)-i:]) {
			cut = len(b) - i
		}
		break
	}

	if cut < len(b) {
		d.pending = append(d.pending, b[cut:]...)
	}
	return strings.ToValidUTF8(string(b[:cut]), string(utf8.RuneError))
}

// Flush returns the decoding of any held-back bytes at end of stream. A
// dangling incomplete sequence is by then known invalid and is replaced.
func (d *TextDecoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	s := strings.ToValidUTF8(string(d.pending), string(utf8.RuneError))
	d.pending = nil
	return s
}

// Framer accumulates text fragments and yields complete lines. Content is
// returned up to but excluding each newline, with a trailing carriage
// return stripped. The incomplete tail is carried to the next Feed call;
// at stream end any non-empty tail is discarded, matching the protocol's
// framing convention that every record ends in a newline.
type Framer struct {
	rest string
}

// Feed appends fragment to the carry-over buffer and returns the complete
// lines observed, in the exact order their terminating newlines arrived.
func (f *Framer) Feed(fragment string) []string {
	buf := f.rest + fragment
	var lines []string
	for {
		i := strings.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, strings.TrimSuffix(buf[:i], "\r"))
		buf = buf[i+1:]
	}
	f.rest = buf
	return lines
}

// Pending returns the current incomplete tail. Useful for diagnostics.
func (f *Framer) Pending() string {
	return f.rest
}

// Data extracts the payload from an SSE line. It returns ok=false for
// anything that is not a `data:` field: blank lines, comments, and SSE
// fields this protocol does not use.
func Data(line string) (payload string, ok bool) {
	if !strings.HasPrefix(line, dataPrefix) {
		return "", false
	}
	return strings.TrimPrefix(line, dataPrefix), true
}
