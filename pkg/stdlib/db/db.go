// Package db implements the "stdlib/db" module on top of database/sql,
// wiring in whichever driver the connection DSN's scheme names — Postgres
// via lib/pq, MySQL via go-sql-driver/mysql, or SQLite via modernc.org/sqlite.
package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/chen-lang/chen/pkg/value"
	"github.com/chen-lang/chen/pkg/vm"
)

func Register(vmInst *vm.VM) {
	mod := value.NewTable()
	mod.Set("connect", native("db.connect", nativeConnect))
	vmInst.Modules["stdlib/db"] = mod
}

func native(name string, fn value.NativeCall) *value.NativeFunction {
	return &value.NativeFunction{Name: name, Arity: -1, Fn: fn}
}

func driverFor(dsn string) (driver, dataSource string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn
	case strings.HasPrefix(dsn, "mysql://"):
		return "mysql", strings.TrimPrefix(dsn, "mysql://")
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://")
	default:
		return "sqlite", dsn
	}
}

func nativeConnect(_ interface{}, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("db.connect expects a DSN string")
	}
	dsn, ok := args[0].(value.String)
	if !ok {
		return nil, fmt.Errorf("db.connect expects a DSN string")
	}
	driverName, dataSource := driverFor(dsn.Val)
	conn, err := sql.Open(driverName, dataSource)
	if err != nil {
		return nil, err
	}

	handle := value.NewTable()
	handle.Set("query", native("db.query", func(_ interface{}, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("query expects a SQL string")
		}
		query, _ := args[0].(value.String)
		rows, err := conn.Query(query.Val, sqlArgs(args[1:])...)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		out := []value.Value{}
		for rows.Next() {
			raw := make([]interface{}, len(cols))
			ptrs := make([]interface{}, len(cols))
			for i := range raw {
				ptrs[i] = &raw[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return nil, err
			}
			rowTbl := value.NewTable()
			for i, c := range cols {
				rowTbl.Set(c, fromSQL(raw[i]))
			}
			out = append(out, rowTbl)
		}
		return value.NewArray(out), nil
	}))
	handle.Set("exec", native("db.exec", func(_ interface{}, args []value.Value) (value.Value, error) {
		if len(args) < 1 {
			return nil, fmt.Errorf("exec expects a SQL string")
		}
		query, _ := args[0].(value.String)
		res, err := conn.Exec(query.Val, sqlArgs(args[1:])...)
		if err != nil {
			return nil, err
		}
		n, _ := res.RowsAffected()
		return value.Integer{Val: n}, nil
	}))
	handle.Set("close", native("db.close", func(_ interface{}, _ []value.Value) (value.Value, error) {
		return value.NullValue, conn.Close()
	}))
	return handle, nil
}

func sqlArgs(vals []value.Value) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case value.Integer:
			out[i] = x.Val
		case value.String:
			out[i] = x.Val
		case value.Bool:
			out[i] = x.Val
		case *value.Decimal:
			out[i] = x.String()
		default:
			out[i] = value.Display(v)
		}
	}
	return out
}

func fromSQL(raw interface{}) value.Value {
	switch x := raw.(type) {
	case nil:
		return value.NullValue
	case int64:
		return value.Integer{Val: x}
	case float64:
		d, _ := value.ParseDecimal(fmt.Sprintf("%v", x))
		return d
	case bool:
		return value.Bool{Val: x}
	case []byte:
		return value.String{Val: string(x)}
	case string:
		return value.String{Val: x}
	}
	return value.String{Val: fmt.Sprint(raw)}
}
