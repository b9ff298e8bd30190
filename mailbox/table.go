package mailbox

import "fmt"

// Table is the fixed-length array of mailbox entries built once at
// construction; an index into it is the entry's wire identity (spec §9,
// "Mailbox table identity").
type Table []Entry

// Set stores value into entries[index] and raises Flag, refusing the write
// if index is out of range, the entry is not owned by self, or value's
// Kind does not match the entry's declared type.
func (t Table) Set(index int, self Module, value Value) error {
	if index < 0 || index >= len(t) {
		return fmt.Errorf("mailbox: index %d out of range [0,%d)", index, len(t))
	}
	e := &t[index]
	if e.Source != self {
		return fmt.Errorf("mailbox: entry %d is not owned by module %d", index, self)
	}
	if e.Value.Kind != value.Kind {
		return fmt.Errorf("mailbox: entry %d declared kind %d, got %d", index, e.Value.Kind, value.Kind)
	}
	e.Value = value
	e.Flag = true
	return nil
}

// Get returns the current stored value: last received for RX entries, last
// set for TX entries.
func (t Table) Get(index int) (Value, error) {
	if index < 0 || index >= len(t) {
		return Value{}, fmt.Errorf("mailbox: index %d out of range [0,%d)", index, len(t))
	}
	return t[index].Value, nil
}
