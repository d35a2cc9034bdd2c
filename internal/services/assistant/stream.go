// File: internal/services/assistant/stream.go
package assistant

import (
	"io"
	"regexp"
	"strings"
)

// emptyMarkerRE matches a line that is only a numbered-list marker with no
// content after it, e.g. "3." followed by whitespace.
var emptyMarkerRE = regexp.MustCompile(`^[0-9]+\.[ \t]*$`)

// Canonicalize applies the deterministic cleanup transform to accumulated
// response text: trailing blank lines are removed, and trailing numbered-list
// markers with no following content are stripped, repeatedly, so the result
// does not depend on how the upstream model chose to terminate its turn.
// Canonicalize is idempotent.
func Canonicalize(text string) string {
	s := strings.TrimRight(text, " \t\r\n")
	for {
		i := strings.LastIndexByte(s, '\n')
		last := s[i+1:]
		if last == "" || !emptyMarkerRE.MatchString(last) {
			return s
		}
		if i < 0 {
			return ""
		}
		s = strings.TrimRight(s[:i], " \t\r\n")
	}
}

// Accumulator builds the running reply text from stream fragments.
type Accumulator struct {
	b strings.Builder
}

// Append adds one text fragment in arrival order.
func (a *Accumulator) Append(fragment string) {
	a.b.WriteString(fragment)
}

// Running returns the canonicalized text accumulated so far, suitable for
// progressive display.
func (a *Accumulator) Running() string {
	return Canonicalize(a.b.String())
}

// Raw returns the accumulated text without canonicalization.
func (a *Accumulator) Raw() string {
	return a.b.String()
}

// Collect drains a stream into its final canonicalized string, invoking
// onRunning with the canonicalized running text after every chunk that
// carries a fragment. The stream is closed before Collect returns.
//
// On a mid-stream failure the canonicalized text accumulated so far is
// returned alongside a stream-interrupted error, so the caller can keep the
// partial reply while treating the operation as failed.
func Collect(stream Stream, onRunning func(string)) (string, error) {
	defer stream.Close()

	var acc Accumulator
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			return acc.Running(), nil
		}
		if err != nil {
			return acc.Running(), NewStreamError("stream interrupted", err)
		}
		if chunk.Content == "" {
			continue
		}
		acc.Append(chunk.Content)
		if onRunning != nil {
			onRunning(acc.Running())
		}
	}
}
