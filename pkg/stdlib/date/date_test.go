package date

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chen-lang/chen/pkg/value"
)

func TestFormatThenParseRoundTrips(t *testing.T) {
	const layout = "2006-01-02T15:04:05Z"
	epoch := value.Integer{Val: 1_700_000_000_000}

	formatted, err := nativeFormat(nil, []value.Value{epoch, value.String{Val: layout}})
	require.NoError(t, err)
	s, ok := formatted.(value.String)
	require.True(t, ok)

	parsed, err := nativeParse(nil, []value.Value{s, value.String{Val: layout}})
	require.NoError(t, err)
	got, ok := parsed.(value.Integer)
	require.True(t, ok)
	assert.Equal(t, epoch.Val, got.Val)
}

func TestNowReturnsAnIntegerEpoch(t *testing.T) {
	v, err := nativeNow(nil, nil)
	require.NoError(t, err)
	_, ok := v.(value.Integer)
	assert.True(t, ok, "date.now() should return an Integer epoch in milliseconds")
}

func TestParseRejectsMismatchedLayout(t *testing.T) {
	_, err := nativeParse(nil, []value.Value{
		value.String{Val: "not a date"},
		value.String{Val: "2006-01-02T15:04:05Z"},
	})
	assert.Error(t, err)
}
