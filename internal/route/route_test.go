package route

import (
	"io"
	"testing"
	"testing/fstest"

	"github.com/jpalmerr/tinyweb/internal/request"
)

func testRoot() fstest.MapFS {
	return fstest.MapFS{
		"index.html":      {Data: []byte("<h1>index</h1>")},
		"hello.html":      {Data: []byte("<h1>hello</h1>")},
		"404.html":        {Data: []byte("<h1>not found</h1>")},
		"img/logo.png":    {Data: []byte{0x89, 'P', 'N', 'G'}},
		"favicon.ico":     {Data: []byte{0, 0, 1, 0}},
		"notes.unknown":   {Data: []byte("plain")},
		"assets/app.css":  {Data: []byte("body{}")},
		"assets/.keep":    {Data: nil},
		"emptydir/.keep2": {Data: nil},
	}
}

func line(s string) request.Line {
	return request.ParseLine([]byte(s + "\r\n\r\n"))
}

func TestResolver_Decide(t *testing.T) {
	r := NewResolver(testRoot(), DefaultDocuments())

	tests := []struct {
		name string
		line request.Line
		want Decision
	}{
		{"root serves index", line("GET / HTTP/1.1"), Decision{Status: StatusOK, File: "index.html"}},
		{"explicit file", line("GET /hello.html HTTP/1.1"), Decision{Status: StatusOK, File: "hello.html"}},
		{"nested file", line("GET /img/logo.png HTTP/1.1"), Decision{Status: StatusOK, File: "img/logo.png"}},
		{"query string ignored", line("GET /hello.html?x=1 HTTP/1.1"), Decision{Status: StatusOK, File: "hello.html"}},
		{"sleep", line("GET /api/sleep HTTP/1.1"), Decision{Status: StatusOK, File: "hello.html", Sleep: true}},
		{"missing file", line("GET /missing.png HTTP/1.1"), Decision{Status: StatusNotFound, File: "404.html"}},
		{"directory", line("GET /img HTTP/1.1"), Decision{Status: StatusNotFound, File: "404.html"}},
		{"parent escape", line("GET /../etc/passwd HTTP/1.1"), Decision{Status: StatusNotFound, File: "404.html"}},
		{"dot segment", line("GET /img/../index.html HTTP/1.1"), Decision{Status: StatusNotFound, File: "404.html"}},
		{"wrong method", line("POST / HTTP/1.1"), Decision{Status: StatusNotFound, File: "404.html"}},
		{"lowercase method", line("get / HTTP/1.1"), Decision{Status: StatusNotFound, File: "404.html"}},
		{"wrong version", line("GET / HTTP/1.0"), Decision{Status: StatusNotFound, File: "404.html"}},
		{"sleep wrong version", line("GET /api/sleep HTTP/1.0"), Decision{Status: StatusNotFound, File: "404.html"}},
		{"malformed", request.Line{}, Decision{Status: StatusNotFound, File: "404.html"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Decide(tt.line); got != tt.want {
				t.Errorf("Decide(%s) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestResolver_MissingIndex(t *testing.T) {
	root := testRoot()
	delete(root, "index.html")
	r := NewResolver(root, DefaultDocuments())

	got := r.Decide(line("GET / HTTP/1.1"))
	if got.Status != StatusNotFound || got.File != "404.html" {
		t.Errorf("Decide(GET /) = %+v, want not found", got)
	}
}

func TestResolver_MissingSleepDocument(t *testing.T) {
	root := testRoot()
	delete(root, "hello.html")
	r := NewResolver(root, DefaultDocuments())

	got := r.Decide(line("GET /api/sleep HTTP/1.1"))
	want := Decision{Status: StatusNotFound, File: "404.html", Sleep: true}
	if got != want {
		t.Errorf("Decide(sleep) = %+v, want %+v", got, want)
	}
}

func TestResolver_CustomDocuments(t *testing.T) {
	root := fstest.MapFS{
		"home.htm":    {Data: []byte("home")},
		"errors/nf":   {Data: []byte("nf")},
		"slow/ok.txt": {Data: []byte("ok")},
	}
	r := NewResolver(root, Documents{Index: "home.htm", NotFound: "errors/nf", Sleep: "slow/ok.txt"})

	if got := r.Decide(line("GET / HTTP/1.1")); got.File != "home.htm" {
		t.Errorf("index File = %q, want home.htm", got.File)
	}
	if got := r.Decide(line("GET /nope HTTP/1.1")); got.File != "errors/nf" {
		t.Errorf("not found File = %q, want errors/nf", got.File)
	}
	if got := r.Decide(line("GET /api/sleep HTTP/1.1")); got.File != "slow/ok.txt" || !got.Sleep {
		t.Errorf("sleep Decision = %+v", got)
	}
}

func TestNewResolver_FillsEmptyDocuments(t *testing.T) {
	r := NewResolver(testRoot(), Documents{Index: "hello.html"})

	if got := r.Decide(line("GET / HTTP/1.1")); got.File != "hello.html" {
		t.Errorf("index File = %q, want hello.html", got.File)
	}
	if got := r.Decide(line("GET /x HTTP/1.1")); got.File != "404.html" {
		t.Errorf("not found File = %q, want 404.html", got.File)
	}
}

func TestDecision_ContentType(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"index.html", "text/html; charset=UTF-8"},
		{"img/logo.png", "image/png"},
		{"favicon.ico", "image/vnd.microsoft.icon"},
		{"notes.unknown", ""},
		{"README", ""},
	}
	for _, tt := range tests {
		if got := (Decision{File: tt.file}).ContentType(); got != tt.want {
			t.Errorf("ContentType(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestResolver_Open(t *testing.T) {
	r := NewResolver(testRoot(), DefaultDocuments())

	f, err := r.Open(r.Decide(line("GET /favicon.ico HTTP/1.1")))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != string([]byte{0, 0, 1, 0}) {
		t.Errorf("data = %v", data)
	}
}
