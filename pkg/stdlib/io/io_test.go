package io

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chen-lang/chen/pkg/value"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	fn()
	require.NoError(t, w.Close())
	os.Stdout = old

	var buf bytes.Buffer
	_, err = io.Copy(&buf, r)
	require.NoError(t, err)
	return buf.String()
}

func TestPrintJoinsArgsWithSpaces(t *testing.T) {
	out := captureStdout(t, func() {
		_, err := nativePrint(nil, []value.Value{value.String{Val: "a"}, value.Integer{Val: 1}})
		require.NoError(t, err)
	})
	assert.Equal(t, "a 1", out)
}

func TestPrintlnAppendsNewline(t *testing.T) {
	out := captureStdout(t, func() {
		_, err := nativePrintln(nil, []value.Value{value.String{Val: "hi"}})
		require.NoError(t, err)
	})
	assert.Equal(t, "hi\n", out)
}

func TestWsConnectRejectsWrongArgCount(t *testing.T) {
	_, err := nativeWsConnect(nil, nil)
	assert.Error(t, err)
}

func TestWsConnectRejectsNonStringURL(t *testing.T) {
	_, err := nativeWsConnect(nil, []value.Value{value.Integer{Val: 1}})
	assert.Error(t, err)
}

func TestWsConnectRejectsUnsupportedScheme(t *testing.T) {
	_, err := nativeWsConnect(nil, []value.Value{value.String{Val: "http://example.invalid"}})
	assert.Error(t, err)
}
