package llm

import (
	"context"
	"errors"
)

// ErrUnavailable wraps every failure to get a usable answer from the model:
// transport errors, timeouts, non-2xx responses and unparseable output.
var ErrUnavailable = errors.New("language model unavailable")

type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int32
}

// TextModel is one completion against a hosted model.
type TextModel interface {
	Generate(ctx context.Context, req Request) (string, error)
}
