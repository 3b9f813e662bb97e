package logging

import (
	"github.com/samber/oops"
)

// LogError logs err at error level
// oops errors contribute their code and context as separate attributes
func (l *Logger) LogError(msg string, err error, args ...any) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := append([]any{"error", oopsErr.Error()}, args...)
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, "code", code)
		}
		if ctx := oopsErr.Context(); len(ctx) > 0 {
			attrs = append(attrs, "context", ctx)
		}
		l.Error(msg, attrs...)
		return
	}

	l.Error(msg, append([]any{"error", err}, args...)...)
}
