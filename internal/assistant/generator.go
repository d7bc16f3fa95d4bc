// Package assistant bridges the current analysis to a hosted generative language model:
// it renders the analysis as prompt context, forwards user questions and returns the
// model's answer verbatim.
package assistant

import "context"

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}
