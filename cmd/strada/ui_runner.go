package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"strada/internal/scenario"
	"strada/internal/ui"
	"strada/rt"
)

type runOutcome struct {
	results []scenario.Result
	err     error
}

// runScenariosWithUI runs req behind the bubbletea progress view. Runtime
// thread starts and finishes are forwarded to the view as a live count.
func runScenariosWithUI(ctx context.Context, title string, req *scenario.Request) ([]scenario.Result, error) {
	if req == nil {
		return nil, fmt.Errorf("missing scenario request")
	}
	names := make([]string, len(req.Scenarios))
	for i, s := range req.Scenarios {
		names[i] = s.Name
	}

	events := make(chan scenario.Event, 256)
	outcomeCh := make(chan runOutcome, 1)
	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))

	var live atomic.Int64
	stopObserving := rt.ObserveThreads(func(ev rt.ThreadEvent) {
		switch ev.State {
		case rt.ThreadStarted:
			live.Add(1)
		case rt.ThreadFinished:
			live.Add(-1)
		default:
			return
		}
		go program.Send(ui.ThreadCountMsg(live.Load()))
	})
	defer stopObserving()

	go func() {
		reqCopy := *req
		reqCopy.Progress = scenario.ChannelSink{Ch: events}
		res, err := scenario.Run(ctx, &reqCopy)
		outcomeCh <- runOutcome{results: res, err: err}
		close(events)
	}()

	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
