package domain

import (
	"time"

	m "vulnsift.dev/pkg/vulnsift/internal/model"
)

// ScanObserver receives progress and timing events from a scan.
// Implementations must be safe for concurrent use.
type ScanObserver interface {
	FilesDiscovered(total int)
	FileProcessed(path m.Path)
	ValidationFinished(elapsed time.Duration, ok bool)
	ScanFinished(mode m.ScanMode, stats m.ScanStats)
}

type nopObserver struct{}

func (nopObserver) FilesDiscovered(int)                    {}
func (nopObserver) FileProcessed(m.Path)                   {}
func (nopObserver) ValidationFinished(time.Duration, bool) {}
func (nopObserver) ScanFinished(m.ScanMode, m.ScanStats)   {}

func observerOrNop(o ScanObserver) ScanObserver {
	if o == nil {
		return nopObserver{}
	}

	return o
}

// Observers fans every event out to each non-nil observer in order.
type Observers []ScanObserver

func (o Observers) FilesDiscovered(total int) {
	for _, obs := range o {
		if obs != nil {
			obs.FilesDiscovered(total)
		}
	}
}

func (o Observers) FileProcessed(path m.Path) {
	for _, obs := range o {
		if obs != nil {
			obs.FileProcessed(path)
		}
	}
}

func (o Observers) ValidationFinished(elapsed time.Duration, ok bool) {
	for _, obs := range o {
		if obs != nil {
			obs.ValidationFinished(elapsed, ok)
		}
	}
}

func (o Observers) ScanFinished(mode m.ScanMode, stats m.ScanStats) {
	for _, obs := range o {
		if obs != nil {
			obs.ScanFinished(mode, stats)
		}
	}
}
