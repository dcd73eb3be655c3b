package chat

import (
	"regexp"
	"strings"
)

// DetailLine is one "Label: value" line of a ticket reply. Lines with no
// value carry only Text.
type DetailLine struct {
	Label string `json:"label,omitempty"`
	Value string `json:"value,omitempty"`
	Text  string `json:"text,omitempty"`
}

var ticketReplyRe = regexp.MustCompile(`(?i)^Nro:\s*`)

// FormatReply splits a ticket-detail reply (one starting with "Nro:") into
// lines. ok is false for any other reply.
func FormatReply(s string) (lines []DetailLine, ok bool) {
	if !ticketReplyRe.MatchString(s) {
		return nil, false
	}
	for _, ln := range strings.Split(s, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}
		label, value, _ := strings.Cut(ln, ":")
		value = strings.TrimSpace(value)
		if value == "" {
			lines = append(lines, DetailLine{Text: ln})
			continue
		}
		lines = append(lines, DetailLine{Label: strings.TrimSpace(label), Value: value})
	}
	return lines, true
}
