// Package metrics provides build observability for docgallery.
//
// Components receive a Recorder by injection and default to NoopRecorder, so
// one-shot builds carry no metrics overhead; watch mode swaps in the
// Prometheus recorder when a metrics address is configured.
package metrics

import "time"

// Recorder receives build-level measurements.
type Recorder interface {
	BuildStarted()
	BuildCompleted(duration time.Duration, succeeded bool)
	ExamplesCollected(count int)
	PagesGenerated(count int)
	PagesPurged(count int)
}

// NoopRecorder is the default Recorder; every method does nothing.
type NoopRecorder struct{}

func (NoopRecorder) BuildStarted()                      {}
func (NoopRecorder) BuildCompleted(time.Duration, bool) {}
func (NoopRecorder) ExamplesCollected(int)              {}
func (NoopRecorder) PagesGenerated(int)                 {}
func (NoopRecorder) PagesPurged(int)                    {}
