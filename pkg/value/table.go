package value

// Table is Chen Lang's sole structured data type: an insertion-ordered
// string-keyed mapping plus an optional metatable pointer. A bare
// map[string]Value has no order tracking, so Table adds an explicit key
// slice: iteration order equals insertion order and re-assigning a key
// preserves its original position.
type Table struct {
	keys   []string
	values map[string]Value
	Meta   *Table
}

func NewTable() *Table {
	return &Table{values: make(map[string]Value)}
}

// Get returns the value at key and whether it was present in the table's
// own map (metatable fallback is the VM's concern, not Table's).
func (t *Table) Get(key string) (Value, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Set assigns key, appending it to the insertion order only if it is new.
func (t *Table) Set(key string, v Value) {
	if _, exists := t.values[key]; !exists {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

func (t *Table) Delete(key string) {
	if _, exists := t.values[key]; !exists {
		return
	}
	delete(t.values, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the table's keys in insertion order. Callers must not mutate
// the returned slice.
func (t *Table) Keys() []string { return t.keys }

func (t *Table) Len() int { return len(t.keys) }

func (*Table) Type() string { return "object" }

func (t *Table) String() string {
	s := "${"
	for i, k := range t.keys {
		if i > 0 {
			s += ", "
		}
		s += k + ": " + Display(t.values[k])
	}
	return s + "}"
}
