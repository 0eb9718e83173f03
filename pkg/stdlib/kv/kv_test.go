package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chen-lang/chen/pkg/value"
)

func TestConnectRejectsWrongArgCount(t *testing.T) {
	_, err := nativeConnect(nil, nil)
	assert.Error(t, err)

	_, err = nativeConnect(nil, []value.Value{value.String{Val: "redis://localhost"}, value.String{Val: "extra"}})
	assert.Error(t, err)
}

func TestConnectRejectsNonStringURL(t *testing.T) {
	_, err := nativeConnect(nil, []value.Value{value.Integer{Val: 1}})
	assert.Error(t, err)
}

func TestConnectRejectsMalformedURL(t *testing.T) {
	_, err := nativeConnect(nil, []value.Value{value.String{Val: "not a redis url"}})
	assert.Error(t, err)
}

func TestConnectReturnsHandleWithExpectedMethods(t *testing.T) {
	// go-redis dials lazily, so parsing a well-formed URL against an address
	// nothing is listening on still succeeds here; only the later get/set
	// calls would need a live server.
	handle, err := nativeConnect(nil, []value.Value{value.String{Val: "redis://127.0.0.1:1"}})
	require.NoError(t, err)
	tbl, ok := handle.(*value.Table)
	require.True(t, ok)

	for _, method := range []string{"get", "set", "delete", "close"} {
		fn, ok := tbl.Get(method)
		require.True(t, ok, "expected handle to have a %q method", method)
		_, ok = fn.(*value.NativeFunction)
		assert.True(t, ok, "%q should be a native function", method)
	}

	closeFn, _ := tbl.Get("close")
	_, err = closeFn.(*value.NativeFunction).Fn(nil, nil)
	assert.NoError(t, err)
}
