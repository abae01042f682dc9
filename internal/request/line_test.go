package request

import "testing"

func TestParseLine(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   Line
	}{
		{
			name:   "root",
			header: "GET / HTTP/1.1\r\n\r\n",
			want:   Line{Method: "GET", Path: "/", Version: "HTTP/1.1", OK: true},
		},
		{
			name:   "file with headers",
			header: "GET /img/logo.png HTTP/1.1\r\nHost: example.com\r\n\r\n",
			want:   Line{Method: "GET", Path: "/img/logo.png", Version: "HTTP/1.1", OK: true},
		},
		{
			name:   "other method still parses",
			header: "POST /form HTTP/1.0\r\n\r\n",
			want:   Line{Method: "POST", Path: "/form", Version: "HTTP/1.0", OK: true},
		},
		{name: "repeated spaces", header: "GET  /a   HTTP/1.1\r\n\r\n"},
		{name: "tab separated", header: "GET\t/x HTTP/1.1\r\n\r\n"},
		{name: "tab and double space", header: "GET\t/x  HTTP/1.1\r\n\r\n"},
		{name: "leading space", header: " GET / HTTP/1.1\r\n\r\n"},
		{name: "trailing space", header: "GET / HTTP/1.1 \r\n\r\n"},
		{name: "two tokens", header: "GET /\r\n\r\n"},
		{name: "four tokens", header: "GET / HTTP/1.1 extra\r\n\r\n"},
		{name: "relative path", header: "GET index.html HTTP/1.1\r\n\r\n"},
		{name: "no line terminator", header: "GET / HTTP/1.1"},
		{name: "empty", header: ""},
		{name: "blank first line", header: "\r\n\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine([]byte(tt.header))
			if got != tt.want {
				t.Errorf("ParseLine(%q) = %+v, want %+v", tt.header, got, tt.want)
			}
		})
	}
}

func TestLine_String(t *testing.T) {
	l := Line{Method: "GET", Path: "/x", Version: "HTTP/1.1", OK: true}
	if got := l.String(); got != "GET /x HTTP/1.1" {
		t.Errorf("String() = %q", got)
	}
	if got := (Line{}).String(); got != "<malformed>" {
		t.Errorf("malformed String() = %q", got)
	}
}
