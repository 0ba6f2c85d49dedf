package reactor

// exitState is the tagged value stored once an exit has been requested.
// A nil pointer means the loop should keep running.
type exitState struct {
	code int
}

// RequestExit asks the native loop to stop with code and wakes it. A later
// request overwrites the code of an earlier one.
func (r *Reactor) RequestExit(code int) {
	r.exit.Store(&exitState{code: code})
	r.log.Debug("exit requested with code %d", code)
	r.Notify()
}

// ExitRequested returns the requested exit code, if any.
func (r *Reactor) ExitRequested() (int, bool) {
	st := r.exit.Load()
	if st == nil {
		return 0, false
	}
	return st.code, true
}
