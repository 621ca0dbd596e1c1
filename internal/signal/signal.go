// Package signal detects the completion marker an agent embeds in its reply
// to request destruction of the conversation session. Extraction is a pure
// text transform so it can be tested without the agent.
package signal

import (
	"regexp"
	"strings"
)

// Marker is the reserved token the agent appends after it has successfully
// executed a task operation. It must never reach the user.
const Marker = "[TASK_DONE]"

var markerPattern = regexp.MustCompile(`[ \t]*["']?` + regexp.QuoteMeta(Marker) + `["']?`)

// Extract scans reply for the completion marker. When absent, the reply is
// returned byte-identical and complete is false. When present, every
// occurrence is stripped together with the whitespace it introduced and any
// quotes a model wrapped it in, and complete is true.
func Extract(reply string) (visible string, complete bool) {
	if !strings.Contains(reply, Marker) {
		return reply, false
	}

	visible = markerPattern.ReplaceAllString(reply, "")
	return strings.TrimSpace(visible), true
}
