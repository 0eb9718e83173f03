package json

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chen-lang/chen/pkg/value"
)

func TestEncodeDecodeRoundTripsObjectAndArray(t *testing.T) {
	obj := value.NewTable()
	obj.Set("name", value.String{Val: "ada"})
	obj.Set("tags", value.NewArray([]value.Value{value.Integer{Val: 1}, value.Integer{Val: 2}}))

	encoded, err := nativeEncode(nil, []value.Value{obj})
	require.NoError(t, err)
	s, ok := encoded.(value.String)
	require.True(t, ok)

	decoded, err := nativeDecode(nil, []value.Value{s})
	require.NoError(t, err)
	tbl, ok := decoded.(*value.Table)
	require.True(t, ok)

	name, ok := tbl.Get("name")
	require.True(t, ok)
	assert.Equal(t, "ada", value.Display(name))

	tagsVal, ok := tbl.Get("tags")
	require.True(t, ok)
	tags, ok := tagsVal.(*value.Array)
	require.True(t, ok)
	assert.Len(t, tags.Elems, 2)
}

func TestDecodeRejectsNonStringArgument(t *testing.T) {
	_, err := nativeDecode(nil, []value.Value{value.Integer{Val: 1}})
	assert.Error(t, err)
}

func TestFromGoPicksIntegerOverDecimalForWholeNumbers(t *testing.T) {
	got := fromGo(float64(42))
	i, ok := got.(value.Integer)
	require.True(t, ok)
	assert.Equal(t, int64(42), i.Val)
}
