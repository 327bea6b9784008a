package build

import "time"

// Report summarizes one build invocation.
type Report struct {
	BuildID      string
	SourceCommit string
	StartedAt    time.Time
	Duration     time.Duration

	Documents int
	Examples  int
	Tags      int
	// PagesWritten counts gallery artifacts actually written (unchanged
	// artifacts are skipped, see gallery.WriteArtifacts).
	PagesWritten int
	PagesPurged  int
	// PagesRetired counts pages the previous build's manifest recorded that
	// this build no longer generates (removed or renamed examples).
	PagesRetired int

	GalleryEnabled bool

	StageDurations map[string]time.Duration
}

func newReport(buildID, commit string, galleryEnabled bool) *Report {
	return &Report{
		BuildID:        buildID,
		SourceCommit:   commit,
		StartedAt:      time.Now(),
		GalleryEnabled: galleryEnabled,
		StageDurations: make(map[string]time.Duration),
	}
}
