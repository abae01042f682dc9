package route

import "strings"

const htmlType = "text/html"

var extensionToType = map[string]string{
	"html": htmlType,
	"htm":  htmlType,
	"css":  "text/css",
	"js":   "text/javascript",
	"txt":  "text/plain",
	"json": "application/json",
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"svg":  "image/svg+xml",
	"ico":  "image/vnd.microsoft.icon",
}

// ContentType returns the Content-Type value for a file extension.
//
// The extension may carry a leading dot and is matched case-insensitively.
// HTML gets a charset parameter; other types do not. Unknown extensions
// return the empty string.
func ContentType(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	t, ok := extensionToType[ext]
	if !ok {
		return ""
	}
	if t == htmlType {
		return t + "; charset=UTF-8"
	}
	return t
}
