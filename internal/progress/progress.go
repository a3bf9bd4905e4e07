// Package progress computes throttled, monotonic completion percentages.
package progress

// Func receives a completion percentage in [0, 100].
type Func func(percent int)

// Streaming percentages never exceed Ceiling; 100 is reserved for the
// explicit end-of-stage signal.
const Ceiling = 99

// Step advances a counter by one and decides whether to report. When every
// is zero or negative every call reports; otherwise only calls that land on a
// multiple of every do. It returns the new counter, the percentage for it and
// whether the percentage should be emitted.
func Step(count, total, every int) (next, percent int, emit bool) {
	next = count + 1
	if every > 0 && next%every != 0 {
		return next, 0, false
	}
	return next, Percent(next, total), true
}

// Percent returns n*100/total clamped to [0, Ceiling]. A total below one is
// treated as one.
func Percent(n, total int) int {
	if total < 1 {
		total = 1
	}
	return clamp(n * 100 / total)
}

// ByteRatio scales a byte offset into the budget left after initial:
// (100-initial)*offset/size + initial, clamped to Ceiling.
func ByteRatio(offset, size int64, initial int) int {
	if size <= 0 {
		return clamp(initial)
	}
	budget := int64(100 - clamp(initial))
	return clamp(int(budget*offset/size) + initial)
}

// DefaultEvery returns the report interval used for a stage of total steps:
// roughly one report per percent.
func DefaultEvery(total int) int {
	return total / 100
}

func clamp(p int) int {
	switch {
	case p < 0:
		return 0
	case p > Ceiling:
		return Ceiling
	default:
		return p
	}
}

// Tracker counts steps of one stage and forwards non-decreasing percentages
// to a Func. It is not safe for concurrent use.
type Tracker struct {
	total  int
	every  int
	count  int
	last   int
	done   bool
	report Func
}

// NewTracker returns a tracker for total steps reporting every steps. A nil
// report function discards updates.
func NewTracker(total, every int, report Func) *Tracker {
	if report == nil {
		report = func(int) {}
	}
	return &Tracker{total: total, every: every, last: -1, report: report}
}

// Advance records one step.
func (t *Tracker) Advance() {
	if t.done {
		return
	}
	var (
		p    int
		emit bool
	)
	t.count, p, emit = Step(t.count, t.total, t.every)
	if emit && p >= t.last {
		t.last = p
		t.report(p)
	}
}

// Report forwards an externally computed percentage, keeping the sequence
// non-decreasing and below 100.
func (t *Tracker) Report(p int) {
	if t.done {
		return
	}
	p = clamp(p)
	if p < t.last {
		return
	}
	t.last = p
	t.report(p)
}

// Done emits 100 once. Later calls to Advance, Report and Done are ignored.
func (t *Tracker) Done() {
	if t.done {
		return
	}
	t.done = true
	t.last = 100
	t.report(100)
}

// Count returns the number of recorded steps.
func (t *Tracker) Count() int {
	return t.count
}

// Scale maps percentages of a sub-stage onto [lo, hi] of a parent Func.
func Scale(f Func, lo, hi int) Func {
	if f == nil {
		return nil
	}
	return func(p int) {
		f(lo + p*(hi-lo)/100)
	}
}
