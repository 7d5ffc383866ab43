package action_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiberline/fiberline/pkg/action"
)

func TestInvokeCarriesNextAndPacket(t *testing.T) {
	next := "some-tube-identity"
	a := action.Invoke[string](next, "payload")
	assert.Equal(t, action.KindInvoke, a.Kind())
	assert.Equal(t, next, a.Next())
	assert.Equal(t, "payload", a.Packet())
}

func TestInvokeAndForgetCarriesNextAndPacket(t *testing.T) {
	next := "some-tube-identity"
	a := action.InvokeAndForget[string](next, "payload")
	assert.Equal(t, action.KindInvokeAndForget, a.Kind())
	assert.Equal(t, next, a.Next())
	assert.Equal(t, "payload", a.Packet())
}

func TestReturnWithCarriesPacket(t *testing.T) {
	a := action.ReturnWith("done")
	assert.Equal(t, action.KindReturn, a.Kind())
	assert.Equal(t, "done", a.Packet())
}

func TestThrowExceptionCarriesError(t *testing.T) {
	errBoom := errors.New("boom")
	a := action.ThrowException[string](errBoom)
	assert.Equal(t, action.KindThrow, a.Kind())
	assert.ErrorIs(t, a.Throwable(), errBoom)
}

func TestSuspendCarriesNothing(t *testing.T) {
	a := action.Suspend[string]()
	assert.Equal(t, action.KindSuspend, a.Kind())
}

func TestInvokeRejectsNilNext(t *testing.T) {
	assert.Panics(t, func() { action.Invoke[string](nil, "p") })
}

func TestInvokeAndForgetRejectsNilNext(t *testing.T) {
	assert.Panics(t, func() { action.InvokeAndForget[string](nil, "p") })
}

func TestThrowExceptionRejectsNilError(t *testing.T) {
	assert.Panics(t, func() { action.ThrowException[string](nil) })
}

func TestKindStringsMatchProtocolNames(t *testing.T) {
	cases := map[action.Kind]string{
		action.KindInvoke:          "INVOKE",
		action.KindInvokeAndForget: "INVOKE_AND_FORGET",
		action.KindReturn:          "RETURN",
		action.KindThrow:           "THROW",
		action.KindSuspend:         "SUSPEND",
	}
	for kind, want := range cases {
		require.Equal(t, want, kind.String())
	}
}

func TestUnknownKindStringDoesNotPanic(t *testing.T) {
	k := action.Kind(99)
	assert.Equal(t, "Kind(99)", k.String())
}
