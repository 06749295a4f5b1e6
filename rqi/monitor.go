package rqi

// Monitor accumulates the ordered residual history and implements the
// stopping predicate. The history is append-only: one entry for the
// initial guess plus one per completed iteration. For differential
// operators the recorded value blends the normalized operator residual
// and the boundary-condition residual by plain addition; the second
// term is not normalized.
type Monitor struct {
	// Tol is the convergence tolerance on the last residual.
	Tol     float64
	history []float64
}

// NewMonitor creates a monitor with the given tolerance.
func NewMonitor(tol float64) *Monitor {
	return &Monitor{Tol: tol}
}

// Append records the residual of a completed iteration.
func (m *Monitor) Append(r float64) {
	m.history = append(m.history, r)
}

// Last returns the most recent residual.
func (m *Monitor) Last() float64 {
	return m.history[len(m.history)-1]
}

// Len returns the number of recorded residuals.
func (m *Monitor) Len() int {
	return len(m.history)
}

// Converged returns true if the last residual is within tolerance.
func (m *Monitor) Converged() bool {
	return len(m.history) > 0 && m.Last() <= m.Tol
}

// History returns a copy of the residual sequence.
func (m *Monitor) History() []float64 {
	h := make([]float64, len(m.history))
	copy(h, m.history)
	return h
}
