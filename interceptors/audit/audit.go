// Package audit provides a demonstration interceptor that logs the
// outcome of every driving pass via logrus, the teacher's legacy logging
// library (internal/log's logrusAdapter), kept alive here as a pluggable
// ambient add-on next to the core's slog-based logging.
package audit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	uuid "github.com/satori/go.uuid"

	"github.com/fiberline/fiberline/pkg/interceptor"
)

type hasID interface {
	ID() uuid.UUID
}

// Interceptor logs one structured logrus entry per driving pass: fiber id,
// duration and outcome.
type Interceptor struct {
	Logger *logrus.Logger
}

// NewInterceptor builds an Interceptor with a standalone logrus.Logger, so
// its output is independent of whatever the core's slog.Default() is
// configured to write to.
func NewInterceptor() *Interceptor {
	return &Interceptor{Logger: logrus.New()}
}

func (a *Interceptor) logger() *logrus.Logger {
	if a.Logger == nil {
		a.Logger = logrus.New()
	}
	return a.Logger
}

func (a *Interceptor) Intercept(ctx context.Context, fiber any, work interceptor.Work) error {
	entry := a.logger().WithField("component", "audit")
	if id, ok := fiber.(hasID); ok {
		entry = entry.WithField("fiber_id", id.ID().String())
	}

	start := time.Now()
	err := work()
	entry = entry.WithField("duration_ms", time.Since(start).Milliseconds())

	if err != nil {
		entry.WithError(err).Warn("fiber driving pass failed")
	} else {
		entry.Debug("fiber driving pass completed")
	}
	return err
}
