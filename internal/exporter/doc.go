// Package exporter persists dashboard documents.
//
// JSONWriter encodes a document with two-space indentation and UTF-8 text,
// writes it to a temporary file next to the destination and renames it into
// place. A failed write leaves any previous file untouched.
package exporter
