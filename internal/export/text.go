// Package export writes a session's analysis and conversation as downloadable reports.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/glacierwatch/internal/models"
)

// WriteText writes the latest answer as "Question: ...\n\nAnswer:\n..." followed by
// earlier turns, newest first. A session without turns is an invalid request.
func WriteText(w io.Writer, s *models.Session) error {
	if len(s.Turns) == 0 {
		return fmt.Errorf("%w: session has no answers to export", models.ErrInvalidRequest)
	}
	var b strings.Builder
	last := s.Turns[len(s.Turns)-1]
	writeTurn(&b, last)
	if len(s.Turns) > 1 {
		b.WriteString("\n\n---\nEarlier questions\n---\n")
		for i := len(s.Turns) - 2; i >= 0; i-- {
			b.WriteString("\n")
			writeTurn(&b, s.Turns[i])
			b.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeTurn(b *strings.Builder, t models.ConversationTurn) {
	fmt.Fprintf(b, "Question: %s\n\nAnswer:\n%s", t.Question, t.Answer)
}

// Filename suggests a download name for a session report.
func Filename(s *models.Session, ext string) string {
	name := strings.ToLower(strings.Join(strings.Fields(s.AOI.Name), "_"))
	if name == "" {
		name = "glacier"
	}
	return fmt.Sprintf("%s_analysis.%s", name, strings.TrimPrefix(ext, "."))
}
