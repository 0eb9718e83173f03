package fs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chen-lang/chen/pkg/value"
)

func TestWriteThenReadFileRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeting.txt")

	_, err := nativeWriteFile(nil, []value.Value{
		value.String{Val: path},
		value.String{Val: "hello chen"},
	})
	require.NoError(t, err)

	got, err := nativeReadFile(nil, []value.Value{value.String{Val: path}})
	require.NoError(t, err)
	s, ok := got.(value.String)
	require.True(t, ok)
	assert.Equal(t, "hello chen", s.Val)
}

func TestExistsReflectsActualFileState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maybe.txt")

	before, err := nativeExists(nil, []value.Value{value.String{Val: path}})
	require.NoError(t, err)
	assert.Equal(t, value.Bool{Val: false}, before)

	_, err = nativeWriteFile(nil, []value.Value{value.String{Val: path}, value.String{Val: "x"}})
	require.NoError(t, err)

	after, err := nativeExists(nil, []value.Value{value.String{Val: path}})
	require.NoError(t, err)
	assert.Equal(t, value.Bool{Val: true}, after)
}

func TestReadFileMissingPathErrors(t *testing.T) {
	_, err := nativeReadFile(nil, []value.Value{value.String{Val: "/no/such/path/chen-test"}})
	assert.Error(t, err)
}
