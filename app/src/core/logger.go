package core

import "context"

// Logger is the narrow logging contract core components depend on, so the
// engine stays decoupled from the concrete logging backend.
type Logger interface {
	Printf(ctx context.Context, format string, v ...any)
	Println(ctx context.Context, v ...any)
}
