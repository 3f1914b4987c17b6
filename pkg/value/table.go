package value

// Table is the open-addressing hash table smog uses for globals,
// class method tables, instance field tables, and the VM's
// string-interning table (spec.md §4.2).
//
// It uses linear probing, a 0.75 load-factor growth trigger, and
// capacities that are always a power of two (minimum 8). An empty
// slot is {key: nil, value: Nil}; a tombstone is
// {key: nil, value: Bool(true)}, the two are told apart by whether
// the stored value happens to be the boolean true, which a genuinely
// empty slot can never hold.
type Table struct {
	count   int
	entries []tableEntry
}

type tableEntry struct {
	key   *ObjString
	value Value
}

const tableLoadFactor = 0.75

// NewTable returns an empty table; the first insertion grows it to
// the minimum capacity of 8.
func NewTable() *Table { return &Table{} }

// Count returns the number of occupied slots, tombstones included (the
// figure the load factor is checked against); Delete does not lower
// it, and grow recomputes it without the tombstones.
func (t *Table) Count() int { return t.count }

// Get returns the value stored for key, and whether key is present.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil, false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return Nil, false
	}
	return e.value, true
}

// Set stores val under key, growing the table first if the load
// factor would be exceeded. Returns true if this created a brand new
// key rather than overwriting an existing one.
func (t *Table) Set(key *ObjString, val Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableLoadFactor {
		t.grow()
	}

	e := t.findEntry(t.entries, key)
	isNewKey := e.key == nil
	// Only a truly empty slot grows count; reusing a tombstone must not,
	// since the tombstone was already counted against the load factor.
	if isNewKey && e.value.IsNil() {
		t.count++
	}

	e.key = key
	e.value = val
	return isNewKey
}

// Delete removes key, leaving a tombstone so later probes don't stop
// short of keys that hashed past this slot. Returns false if key
// wasn't present.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = Bool(true) // tombstone marker
	return true
}

// findEntry walks the probe sequence for key starting at its hash
// modulo capacity. It returns the entry holding key if present,
// otherwise the first tombstone seen along the way (so a subsequent
// insert reuses it), or failing that the first empty slot.
func (t *Table) findEntry(entries []tableEntry, key *ObjString) *tableEntry {
	capacity := uint32(len(entries))
	index := key.Hash % capacity
	var tombstone *tableEntry

	for {
		e := &entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) % capacity
	}
}

func (t *Table) grow() {
	newCap := 8
	if len(t.entries) > 0 {
		newCap = len(t.entries) * 2
	}
	newEntries := make([]tableEntry, newCap)

	t.count = 0
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		dst := t.findEntry(newEntries, e.key)
		dst.key = e.key
		dst.value = e.value
		t.count++
	}
	t.entries = newEntries
}

// FindString is the interning probe: given content and its
// precomputed hash, it returns the canonical *ObjString already in
// the table, or nil if no such string has been interned yet. Used
// only by the VM's string table.
func (t *Table) FindString(chars string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	capacity := uint32(len(t.entries))
	index := hash % capacity

	for {
		e := &t.entries[index]
		if e.key == nil {
			if e.value.IsNil() {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		index = (index + 1) % capacity
	}
}

// RemoveWhite deletes every entry whose key is not GC-marked. Used to
// prune the intern table's weak references before sweep frees the
// unmarked strings they point to.
func (t *Table) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.Marked {
			e.key = nil
			e.value = Bool(true)
		}
	}
}

// Mark marks every live key and value in the table by calling mark on
// each Object reference found. Used to root the globals table (keys
// and values) and, via blackening, class method and instance field
// tables.
func (t *Table) Mark(mark func(Object)) {
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		mark(e.key)
		if e.value.IsObject() {
			mark(e.value.AsObject())
		}
	}
}

// Each calls fn for every live entry. Iteration order is unspecified.
func (t *Table) Each(fn func(key *ObjString, val Value)) {
	for _, e := range t.entries {
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}
