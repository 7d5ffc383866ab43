package audit_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	uuid "github.com/satori/go.uuid"

	"github.com/fiberline/fiberline/interceptors/audit"
)

type fakeFiber struct{ id uuid.UUID }

func (f fakeFiber) ID() uuid.UUID { return f.id }

func TestInterceptorLogsSuccess(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	a := &audit.Interceptor{Logger: logger}
	id, err := uuid.NewV4()
	require.NoError(t, err)

	err = a.Intercept(context.Background(), fakeFiber{id: id}, func() error { return nil })
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "fiber driving pass completed")
	assert.Contains(t, out, id.String())
}

func TestInterceptorLogsFailureAndPropagatesError(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	a := &audit.Interceptor{Logger: logger}
	boom := errors.New("boom")

	err := a.Intercept(context.Background(), nil, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "fiber driving pass failed")
}

func TestNewInterceptorDefaultsLogger(t *testing.T) {
	a := audit.NewInterceptor()
	err := a.Intercept(context.Background(), nil, func() error { return nil })
	assert.NoError(t, err)
}
