package metrics

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordLine forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordLine(ev LineEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordLine(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordPlan forwards plan events.
func (m *MultiSink) RecordPlan(ev PlanEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PlanRecorder); ok {
			if err := rec.RecordPlan(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordTrip forwards trip events.
func (m *MultiSink) RecordTrip(ev TripEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(TripRecorder); ok {
			if err := rec.RecordTrip(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordDelay forwards delay events.
func (m *MultiSink) RecordDelay(ev DelayEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(DelayRecorder); ok {
			if err := rec.RecordDelay(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordResource forwards availability changes.
func (m *MultiSink) RecordResource(ev ResourceEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ResourceRecorder); ok {
			if err := rec.RecordResource(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
