package request

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

const (
	// ProbeSize is the largest number of bytes requested from the
	// connection per read while looking for the end of the header.
	ProbeSize = 14

	// MaxHeaderSize bounds the header buffer. A header whose delimiter does
	// not end within this many bytes is rejected.
	MaxHeaderSize = 2048
)

var delimiter = []byte("\r\n\r\n")

var (
	// ErrHeaderTooLong is returned when no delimiter ends within MaxHeaderSize bytes.
	ErrHeaderTooLong = fmt.Errorf("request header exceeds %d bytes", MaxHeaderSize)

	// ErrClosed is returned when the peer closes before sending the delimiter.
	ErrClosed = errors.New("connection closed before end of request header")

	// ErrNotUTF8 is returned by [Text] for header bytes that are not valid UTF-8.
	ErrNotUTF8 = errors.New("request header is not valid UTF-8")
)

// State is a state of the header acquisition state machine.
type State int

const (
	// Reading is the initial state: more bytes are needed.
	Reading State = iota
	// Found means the delimiter was seen within MaxHeaderSize bytes.
	Found
	// TooLong means MaxHeaderSize was exceeded first.
	TooLong
	// Closed means the peer stopped sending before the delimiter.
	Closed
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case Reading:
		return "reading"
	case Found:
		return "found"
	case TooLong:
		return "too_long"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Header accumulates header bytes and tracks the acquisition state.
//
// The zero value is ready to use. Once the state leaves Reading, further
// calls to [Header.Feed] are ignored.
type Header struct {
	buf   []byte
	state State
}

// Feed appends chunk and advances the state machine. An empty chunk means
// the peer closed the connection.
//
// Only the recently read tail is searched for the delimiter: the last
// 2*ProbeSize bytes, widened when a chunk is larger than a probe so that
// every new byte plus the three before it are covered.
func (h *Header) Feed(chunk []byte) State {
	if h.state != Reading {
		return h.state
	}
	if len(chunk) == 0 {
		h.state = Closed
		return h.state
	}

	prev := len(h.buf)
	h.buf = append(h.buf, chunk...)

	start := len(h.buf) - 2*ProbeSize
	if s := prev - (len(delimiter) - 1); s < start {
		start = s
	}
	if start < 0 {
		start = 0
	}

	if i := bytes.Index(h.buf[start:], delimiter); i >= 0 && start+i+len(delimiter) <= MaxHeaderSize {
		h.state = Found
		return h.state
	}
	if len(h.buf) > MaxHeaderSize {
		h.state = TooLong
	}
	return h.state
}

// State returns the current state.
func (h *Header) State() State {
	return h.state
}

// Bytes returns everything read so far. The slice aliases the buffer.
func (h *Header) Bytes() []byte {
	return h.buf
}

// Err returns the error matching a terminal failure state, or nil.
func (h *Header) Err() error {
	switch h.state {
	case TooLong:
		return ErrHeaderTooLong
	case Closed:
		return ErrClosed
	default:
		return nil
	}
}

// ReadHeader reads from r in ProbeSize chunks until the header is complete,
// too long, or the peer closes.
//
// On Found the returned error is nil. On TooLong or Closed it is
// ErrHeaderTooLong or ErrClosed. Any other read failure is returned
// wrapped, with state Closed.
func ReadHeader(r io.Reader) ([]byte, State, error) {
	var h Header
	probe := make([]byte, ProbeSize)

	for {
		n, err := r.Read(probe)
		if n > 0 {
			if st := h.Feed(probe[:n]); st != Reading {
				return h.Bytes(), st, h.Err()
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				h.Feed(nil)
				return h.Bytes(), h.State(), h.Err()
			}
			h.state = Closed
			return h.Bytes(), h.State(), fmt.Errorf("read request header: %w", err)
		}
	}
}

// Text returns the header up to and including the first delimiter as a
// string, or ErrNotUTF8. Bytes after the delimiter belong to the request
// body and are not checked. Without a delimiter the whole buffer is used.
func Text(header []byte) (string, error) {
	if i := bytes.Index(header, delimiter); i >= 0 {
		header = header[:i+len(delimiter)]
	}
	if !utf8.Valid(header) {
		return "", ErrNotUTF8
	}
	return string(header), nil
}

// Tail returns at most the last 2*ProbeSize bytes of header, the window
// searched for the delimiter on the final read.
func Tail(header []byte) []byte {
	if len(header) <= 2*ProbeSize {
		return header
	}
	return header[len(header)-2*ProbeSize:]
}
