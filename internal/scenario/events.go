package scenario

import "time"

// Status captures the progress state of a scenario.
type Status string

const (
	// StatusQueued indicates the scenario is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusRunning indicates the scenario is executing.
	StatusRunning Status = "running"
	// StatusDone indicates the scenario finished cleanly.
	StatusDone Status = "done"
	// StatusFailed indicates the scenario returned an error, threw, or leaked.
	StatusFailed Status = "failed"
)

// Event reports progress for one scenario.
type Event struct {
	Scenario string
	Status   Status
	Err      error
	Elapsed  time.Duration
	// Live is the change in live runtime values across the scenario. It is
	// only meaningful when scenarios run one at a time.
	Live int64
}

// Sink consumes progress events.
type Sink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }

func emit(sink Sink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
