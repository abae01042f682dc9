package route

import (
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/jpalmerr/tinyweb/internal/request"
)

// Status lines sent by tinyweb.
const (
	StatusOK       = "200 OK"
	StatusNotFound = "404 NOT FOUND"
)

const (
	// SleepPath is the request target of the slow endpoint.
	SleepPath = "/api/sleep"

	// DefaultSleepDelay is how long the slow endpoint holds its worker.
	DefaultSleepDelay = 5 * time.Second

	supportedMethod  = "GET"
	supportedVersion = "HTTP/1.1"
)

// Documents names the fixed documents, relative to the document root.
type Documents struct {
	// Index is served for "GET /".
	Index string
	// NotFound is served with StatusNotFound.
	NotFound string
	// Sleep is served by the slow endpoint once its delay has passed.
	Sleep string
}

// DefaultDocuments returns the document names the server uses unless configured otherwise.
func DefaultDocuments() Documents {
	return Documents{
		Index:    "index.html",
		NotFound: "404.html",
		Sleep:    "hello.html",
	}
}

// Decision is the outcome of routing one request.
type Decision struct {
	// Status is the status line text, e.g. "200 OK".
	Status string
	// File is the path of the file to send, relative to the document root.
	File string
	// Sleep is set for the slow endpoint; the caller waits before responding.
	Sleep bool
}

// ContentType returns the content type for the decision's file.
func (d Decision) ContentType() string {
	return ContentType(path.Ext(d.File))
}

// Resolver turns request lines into [Decision] values.
type Resolver struct {
	root fs.FS
	docs Documents
}

// NewResolver creates a [Resolver] over the document root fsys.
// Empty document names fall back to [DefaultDocuments].
func NewResolver(fsys fs.FS, docs Documents) *Resolver {
	def := DefaultDocuments()
	if docs.Index == "" {
		docs.Index = def.Index
	}
	if docs.NotFound == "" {
		docs.NotFound = def.NotFound
	}
	if docs.Sleep == "" {
		docs.Sleep = def.Sleep
	}
	return &Resolver{root: fsys, docs: docs}
}

// Decide routes line.
//
// Only two forms are supported, both matched case-sensitively:
// "GET /api/sleep HTTP/1.1" and "GET /<path> HTTP/1.1". An empty path
// means the index document. Everything else, including paths that leave
// the document root or name something that is not a regular file,
// resolves to the not-found document. The not-found document itself is
// not checked.
func (r *Resolver) Decide(line request.Line) Decision {
	if !line.OK || line.Method != supportedMethod || line.Version != supportedVersion {
		return r.notFound()
	}

	if line.Path == SleepPath {
		d := Decision{Status: StatusOK, File: r.docs.Sleep, Sleep: true}
		if !r.isFile(d.File) {
			d.Status, d.File = StatusNotFound, r.docs.NotFound
		}
		return d
	}

	name := strings.TrimPrefix(line.Path, "/")
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		name = r.docs.Index
	}

	if !r.isFile(name) {
		return r.notFound()
	}
	return Decision{Status: StatusOK, File: name}
}

func (r *Resolver) notFound() Decision {
	return Decision{Status: StatusNotFound, File: r.docs.NotFound}
}

// isFile reports whether name is a regular file inside the root.
func (r *Resolver) isFile(name string) bool {
	if !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(r.root, name)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// Open opens the decision's file from the document root.
func (r *Resolver) Open(d Decision) (fs.File, error) {
	return r.root.Open(d.File)
}
