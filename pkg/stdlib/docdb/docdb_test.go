package docdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/chen-lang/chen/pkg/value"
)

func TestToBsonConvertsNestedObjectsAndArrays(t *testing.T) {
	inner := value.NewTable()
	inner.Set("city", value.String{Val: "nyc"})
	tbl := value.NewTable()
	tbl.Set("name", value.String{Val: "ada"})
	tbl.Set("age", value.Integer{Val: 30})
	tbl.Set("active", value.Bool{Val: true})
	tbl.Set("address", inner)
	tbl.Set("tags", value.NewArray([]value.Value{value.String{Val: "a"}, value.String{Val: "b"}}))

	doc := toBson(tbl)
	assert.Equal(t, "ada", doc["name"])
	assert.Equal(t, int64(30), doc["age"])
	assert.Equal(t, true, doc["active"])

	addr, ok := doc["address"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, "nyc", addr["city"])

	tags, ok := doc["tags"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"a", "b"}, tags)
}

func TestFromBsonConvertsIdToStringAndNestedValues(t *testing.T) {
	raw := bson.M{
		"_id":   int32(7),
		"count": int64(4),
		"nested": bson.M{
			"flag": true,
		},
		"items": []interface{}{int32(1), int32(2)},
	}
	got := fromBson(raw)
	tbl, ok := got.(*value.Table)
	require.True(t, ok)

	id, _ := tbl.Get("_id")
	assert.Equal(t, "7", value.Display(id))

	count, _ := tbl.Get("count")
	assert.Equal(t, value.Integer{Val: 4}, count)

	nestedVal, _ := tbl.Get("nested")
	nested, ok := nestedVal.(*value.Table)
	require.True(t, ok)
	flag, _ := nested.Get("flag")
	assert.Equal(t, value.Bool{Val: true}, flag)

	itemsVal, _ := tbl.Get("items")
	items, ok := itemsVal.(*value.Array)
	require.True(t, ok)
	require.Len(t, items.Elems, 2)
	assert.Equal(t, value.Integer{Val: 1}, items.Elems[0])
}

func TestToBsonValueHandlesNull(t *testing.T) {
	assert.Nil(t, toBsonValue(value.NullValue))
}
