// Package request implements the request side of a tinyweb connection:
// reading a bounded request header, parsing its request line, and
// draining whatever else the client already sent.
//
// No general HTTP parser is involved. The header is accumulated in small
// probes until the "\r\n\r\n" delimiter shows up or 2048 bytes have been
// read, and only the first line of it is ever interpreted.
package request
