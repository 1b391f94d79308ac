package window

// Value is a number that may be unavailable.
type Value struct {
	v  float64
	ok bool
}

// Some wraps an available value.
func Some(v float64) Value {
	return Value{v: v, ok: true}
}

// None is the unavailable value.
func None() Value {
	return Value{}
}

// Get returns the value and whether it is available.
func (v Value) Get() (float64, bool) {
	return v.v, v.ok
}

// Available reports whether the value is set.
func (v Value) Available() bool {
	return v.ok
}

// Or returns the value, or def when unavailable.
func (v Value) Or(def float64) float64 {
	if !v.ok {
		return def
	}
	return v.v
}

// Summary holds the statistics of one window.
type Summary struct {
	Count         int
	Oldest        Value
	Latest        Value
	Min           Value
	Max           Value
	PercentChange Value
}
