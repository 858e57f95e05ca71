// Package extract scrapes printable text out of raw print-job payloads.
package extract

import "strings"

// Text filters buf to printable ASCII (32..126) plus newline, carriage return
// and tab, and returns the retained bytes as a trimmed string. Everything else
// is dropped, not replaced: this is a lossy best-effort scrape of whatever
// ASCII payload a binary print format happens to embed, not a codec.
func Text(buf []byte) string {
	var b strings.Builder
	b.Grow(len(buf))
	for _, c := range buf {
		if (c >= 32 && c <= 126) || c == '\n' || c == '\r' || c == '\t' {
			b.WriteByte(c)
		}
	}
	return strings.TrimSpace(b.String())
}
