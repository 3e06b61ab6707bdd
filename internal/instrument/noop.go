package instrument

// NoopMonitor discards everything. Used when a caller passes no monitor.
type NoopMonitor struct{}

func (NoopMonitor) Debug(string, ...any)   {}
func (NoopMonitor) Info(string, ...any)    {}
func (NoopMonitor) Warning(string, ...any) {}
func (NoopMonitor) Severe(string, ...any)  {}

// OrNoop returns m, or a NoopMonitor when m is nil.
func OrNoop(m Monitor) Monitor {
	if m == nil {
		return NoopMonitor{}
	}
	return m
}
