package reasoning

// Trace is the ordered, append-only log of steps for one chat request.
// Recursive calls build their own Trace and the caller appends it whole,
// which keeps depth-first order without sharing a slice across calls.
type Trace []Step

func (t *Trace) Append(s Step) {
	*t = append(*t, s)
}

// Extend appends a child call's trace in its entirety.
func (t *Trace) Extend(child Trace) {
	*t = append(*t, child...)
}

// Count returns how many steps of the given type the trace holds.
func (t Trace) Count(typ StepType) int {
	n := 0
	for _, s := range t {
		if s.Type == typ {
			n++
		}
	}
	return n
}

// Steps returns the trace as a non-nil slice, suitable for JSON output.
func (t Trace) Steps() []Step {
	if t == nil {
		return []Step{}
	}
	return []Step(t)
}
