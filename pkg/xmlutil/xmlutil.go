// Package xmlutil escapes untrusted text before it is embedded in
// XML-delimited LLM prompts.
package xmlutil

import (
	"encoding/xml"
	"strings"
)

// Escape replaces characters with special meaning in XML so user text cannot
// close the surrounding tag.
func Escape(s string) string {
	var buf strings.Builder
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		// EscapeText only fails on invalid UTF-8; return original on error.
		return s
	}
	return buf.String()
}

// Tag wraps escaped content in <name>...</name>.
func Tag(name, content string) string {
	return "<" + name + ">" + Escape(content) + "</" + name + ">"
}
