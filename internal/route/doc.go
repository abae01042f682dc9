// Package route maps a parsed request line to a response decision and
// file extensions to content types.
//
// Files are resolved against an explicit [fs.FS] holding the document
// root; nothing in this package depends on the process working directory.
package route
