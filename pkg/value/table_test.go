package value

import "testing"

func TestSetPreservesInsertionOrder(t *testing.T) {
	tbl := NewTable()
	tbl.Set("b", Integer{Val: 2})
	tbl.Set("a", Integer{Val: 1})
	tbl.Set("b", Integer{Val: 20}) // re-assigning an existing key keeps its position

	if got := tbl.Keys(); len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("Keys() = %v, want [b a]", got)
	}
	v, _ := tbl.Get("b")
	if v.(Integer).Val != 20 {
		t.Errorf("Get(b) = %v, want 20", v)
	}
}

func TestDeleteRemovesKeyFromOrderAndValues(t *testing.T) {
	tbl := NewTable()
	tbl.Set("x", Integer{Val: 1})
	tbl.Set("y", Integer{Val: 2})
	tbl.Delete("x")

	if _, ok := tbl.Get("x"); ok {
		t.Error("Get(x) after Delete(x) still found a value")
	}
	if got := tbl.Keys(); len(got) != 1 || got[0] != "y" {
		t.Fatalf("Keys() = %v, want [y]", got)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestTableStringRendersObjectLiteralShape(t *testing.T) {
	tbl := NewTable()
	tbl.Set("x", Integer{Val: 1})
	if got := tbl.String(); got != "${x: 1}" {
		t.Errorf("Table.String() = %q, want %q", got, "${x: 1}")
	}
}

func TestTableMetaDefaultsToNil(t *testing.T) {
	tbl := NewTable()
	if tbl.Meta != nil {
		t.Error("a freshly created Table should have no metatable")
	}
	proto := NewTable()
	tbl.Meta = proto
	if tbl.Meta != proto {
		t.Error("Meta should be directly settable to attach a prototype")
	}
}
