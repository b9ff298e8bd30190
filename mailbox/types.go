package mailbox

// LogPrintf matches the logging hook convention used throughout this
// codebase: nil disables logging.
type LogPrintf func(format string, v ...interface{})

// Module names a peer on the bus. The set of legal peers is fixed when an
// Engine is constructed; ModuleAll is computed from that set, not stored in
// it.
type Module byte

// Kind tags the three wire-legal value types. Re-architected as an
// explicit variant (rather than runtime type inspection, which the Python
// source relied on) so encode width and decode parsing are driven by the
// entry's declared type, never inferred from the bytes on the wire.
type Kind int

const (
	KindInt32 Kind = iota
	KindFloat32
	KindBool
)

// Value is a tagged union over the three data types this protocol carries.
// Only one of the typed fields is meaningful, selected by Kind.
type Value struct {
	Kind  Kind
	int32 int32
	f32   float32
	b     bool
}

func Int32Value(v int32) Value   { return Value{Kind: KindInt32, int32: v} }
func Float32Value(v float32) Value { return Value{Kind: KindFloat32, f32: v} }
func BoolValue(v bool) Value     { return Value{Kind: KindBool, b: v} }

// Int32 returns the stored value and true if Kind is KindInt32.
func (v Value) Int32() (int32, bool) { return v.int32, v.Kind == KindInt32 }

// Float32 returns the stored value and true if Kind is KindFloat32.
func (v Value) Float32() (float32, bool) { return v.f32, v.Kind == KindFloat32 }

// Bool returns the stored value and true if Kind is KindBool.
func (v Value) Bool() (bool, bool) { return v.b, v.Kind == KindBool }

// Rate selects when a TX entry is due. Async means "event driven": the
// entry transmits when its Flag is set, never on a fixed cadence.
type Rate int

const Async Rate = 0

// Direction records which end of the entry this node is, redundant with
// Source == self but kept for readability, per spec.
type Direction int

const (
	RX Direction = iota
	TX
)

// Entry is one row of the fixed, statically-indexed mailbox table; its
// index in the Table is its identity on the wire.
type Entry struct {
	Value     Value
	Rate      Rate // Async, or a positive divisor of round_counter
	Flag      bool
	Direction Direction
	Source    Module
	Dest      Module
}
