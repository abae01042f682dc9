package request

import (
	"bytes"
	"strings"
)

var crlf = []byte("\r\n")

// Line is the request line of a header.
//
// OK reports whether the line parsed. A Line with OK false is the
// malformed variant and its other fields are empty.
type Line struct {
	Method  string
	Path    string
	Version string
	OK      bool
}

// ParseLine extracts the request line from the first line of header.
//
// The line must be exactly three non-empty tokens separated by single
// spaces, and the second one must start with "/". Tabs and repeated
// spaces make the line malformed. Nothing else about the tokens is checked.
func ParseLine(header []byte) Line {
	end := bytes.Index(header, crlf)
	if end < 0 {
		return Line{}
	}

	fields := strings.Split(string(header[:end]), " ")
	if len(fields) != 3 || !strings.HasPrefix(fields[1], "/") {
		return Line{}
	}
	for _, f := range fields {
		if f == "" {
			return Line{}
		}
	}

	return Line{
		Method:  fields[0],
		Path:    fields[1],
		Version: fields[2],
		OK:      true,
	}
}

// String renders the line the way it appeared on the wire.
func (l Line) String() string {
	if !l.OK {
		return "<malformed>"
	}
	return l.Method + " " + l.Path + " " + l.Version
}
