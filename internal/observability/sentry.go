package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry is a no-op when no DSN is configured, so local development
// works without a Sentry project.
func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		ServerName:       "blog-api",
		AttachStacktrace: true,
	})
}

// FlushSentry drains buffered events before shutdown. The deadline keeps a
// dead network from blocking process exit.
func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
