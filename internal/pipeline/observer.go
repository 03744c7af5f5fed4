package pipeline

import "time"

// RunInfo identifies a run for observers.
type RunInfo struct {
	RunID   string
	Mode    string
	Source  string
	Dest    string
	Workers int
	Started time.Time
}

// Observer receives run lifecycle events. All calls come from the
// coordinating goroutine.
type Observer interface {
	OnStart(info RunInfo)
	OnUnitDone(result Result)
	OnFinish(info RunInfo, stats Stats)
}

// Observers fans events out to several observers in order.
type Observers []Observer

func (o Observers) OnStart(info RunInfo) {
	for _, obs := range o {
		obs.OnStart(info)
	}
}

func (o Observers) OnUnitDone(result Result) {
	for _, obs := range o {
		obs.OnUnitDone(result)
	}
}

func (o Observers) OnFinish(info RunInfo, stats Stats) {
	for _, obs := range o {
		obs.OnFinish(info, stats)
	}
}

type nopObserver struct{}

func (nopObserver) OnStart(RunInfo) {}

func (nopObserver) OnUnitDone(Result) {}

func (nopObserver) OnFinish(RunInfo, Stats) {}
