package trace

import (
	"strconv"
	"sync"
	"time"
)

// Probe samples gauges attached to each heartbeat, such as live value or
// thread counts. It runs on the heartbeat goroutine.
type Probe func() map[string]string

// Heartbeat emits a periodic event so a hung run is visible in the trace:
// heartbeats keep arriving while no span ends, and the probe shows whether
// values are still being allocated.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	probe    Probe
	stop     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// StartHeartbeat starts emitting every interval. It returns nil when the
// tracer is disabled or interval is not positive; Stop accepts nil.
func StartHeartbeat(tracer Tracer, interval time.Duration, probe Probe) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		probe:    probe,
		stop:     make(chan struct{}),
	}
	h.wg.Add(1)
	go h.run()
	return h
}

func (h *Heartbeat) run() {
	defer h.wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	var beat uint64
	for {
		select {
		case <-ticker.C:
			beat++
			var extra map[string]string
			if h.probe != nil {
				extra = h.probe()
			}
			h.tracer.Emit(&Event{
				Time:   time.Now(),
				Kind:   KindHeartbeat,
				Scope:  ScopeRuntime,
				GID:    GoroutineID(),
				Name:   "heartbeat",
				Detail: "#" + strconv.FormatUint(beat, 10),
				Extra:  extra,
			})
		case <-h.stop:
			return
		}
	}
}

// Stop ends the heartbeat and waits for its goroutine. Repeated calls are
// harmless.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	h.wg.Wait()
}
