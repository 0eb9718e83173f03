// Package docdb implements the "stdlib/docdb" module on top of
// go.mongodb.org/mongo-driver/v2, grounded in the pack's document-store stack.
package docdb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/chen-lang/chen/pkg/value"
	"github.com/chen-lang/chen/pkg/vm"
)

func Register(vmInst *vm.VM) {
	mod := value.NewTable()
	mod.Set("connect", native("docdb.connect", nativeConnect))
	vmInst.Modules["stdlib/docdb"] = mod
}

func native(name string, fn value.NativeCall) *value.NativeFunction {
	return &value.NativeFunction{Name: name, Arity: -1, Fn: fn}
}

func nativeConnect(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("docdb.connect expects (uri, database)")
	}
	uri, ok := args[0].(value.String)
	if !ok {
		return nil, fmt.Errorf("docdb.connect: uri must be a string")
	}
	dbName, ok := args[1].(value.String)
	if !ok {
		return nil, fmt.Errorf("docdb.connect: database must be a string")
	}
	ctx := context.Background()
	client, err := mongo.Connect(options.Client().ApplyURI(uri.Val))
	if err != nil {
		return nil, err
	}
	database := client.Database(dbName.Val)

	handle := value.NewTable()
	handle.Set("insert", native("docdb.insert", func(_ interface{}, args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("insert expects (collection, document)")
		}
		coll, _ := args[0].(value.String)
		doc, ok := args[1].(*value.Table)
		if !ok {
			return nil, fmt.Errorf("insert: document must be an object")
		}
		res, err := database.Collection(coll.Val).InsertOne(ctx, toBson(doc))
		if err != nil {
			return nil, err
		}
		return value.String{Val: fmt.Sprint(res.InsertedID)}, nil
	}))
	handle.Set("find_one", native("docdb.find_one", func(_ interface{}, args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("find_one expects (collection, filter)")
		}
		coll, _ := args[0].(value.String)
		filter, ok := args[1].(*value.Table)
		if !ok {
			return nil, fmt.Errorf("find_one: filter must be an object")
		}
		var raw bson.M
		err := database.Collection(coll.Val).FindOne(ctx, toBson(filter)).Decode(&raw)
		if err == mongo.ErrNoDocuments {
			return value.NullValue, nil
		}
		if err != nil {
			return nil, err
		}
		return fromBson(raw), nil
	}))
	handle.Set("close", native("docdb.close", func(_ interface{}, _ []value.Value) (value.Value, error) {
		return value.NullValue, client.Disconnect(ctx)
	}))
	return handle, nil
}

func toBson(t *value.Table) bson.M {
	out := bson.M{}
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		out[k] = toBsonValue(v)
	}
	return out
}

func toBsonValue(v value.Value) interface{} {
	switch x := v.(type) {
	case value.Null:
		return nil
	case value.Bool:
		return x.Val
	case value.Integer:
		return x.Val
	case *value.Decimal:
		return x.String()
	case value.String:
		return x.Val
	case *value.Array:
		out := make([]interface{}, len(x.Elems))
		for i, e := range x.Elems {
			out[i] = toBsonValue(e)
		}
		return out
	case *value.Table:
		return toBson(x)
	}
	return value.Display(v)
}

func fromBson(raw bson.M) value.Value {
	t := value.NewTable()
	for k, v := range raw {
		if k == "_id" {
			t.Set(k, value.String{Val: fmt.Sprint(v)})
			continue
		}
		t.Set(k, fromBsonValue(v))
	}
	return t
}

func fromBsonValue(raw interface{}) value.Value {
	switch x := raw.(type) {
	case nil:
		return value.NullValue
	case bool:
		return value.Bool{Val: x}
	case int32:
		return value.Integer{Val: int64(x)}
	case int64:
		return value.Integer{Val: x}
	case float64:
		d, _ := value.ParseDecimal(fmt.Sprintf("%v", x))
		return d
	case string:
		return value.String{Val: x}
	case bson.M:
		return fromBson(x)
	case []interface{}:
		elems := make([]value.Value, len(x))
		for i, e := range x {
			elems[i] = fromBsonValue(e)
		}
		return value.NewArray(elems)
	}
	return value.String{Val: fmt.Sprint(raw)}
}
