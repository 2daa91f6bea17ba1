// Package types defines shared types used across the application.
package types

import "time"

const (
	ActivityHeader  = "YouTube"
	ActivityProduct = "YouTube"
	ActivityControl = "YouTube watch history"
)

// Subtitle identifies the channel an activity belongs to.
type Subtitle struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ActivityRecord represents one harvested watch-history item. The layout
// follows the Google Takeout watch-history export.
type ActivityRecord struct {
	Header           string     `json:"header"`
	Title            string     `json:"title"`
	TitleURL         string     `json:"titleUrl"`
	Subtitles        []Subtitle `json:"subtitles"`
	Time             string     `json:"time"`
	Products         []string   `json:"products"`
	ActivityControls []string   `json:"activityControls"`
}

// NewActivityRecord returns a record with the fixed header, product and
// activity control tags filled in. A nil channel results in an empty
// (not null) subtitle list.
func NewActivityRecord(title, titleURL string, channel *Subtitle, instant string) ActivityRecord {
	subtitles := []Subtitle{}
	if channel != nil {
		subtitles = append(subtitles, *channel)
	}
	return ActivityRecord{
		Header:           ActivityHeader,
		Title:            title,
		TitleURL:         titleURL,
		Subtitles:        subtitles,
		Time:             instant,
		Products:         []string{ActivityProduct},
		ActivityControls: []string{ActivityControl},
	}
}

// Element is one feed element as rendered by the page: its outer HTML.
type Element struct {
	HTML string
}

// StopReason tells why a harvest run terminated normally.
type StopReason string

const (
	StopExhausted      StopReason = "exhausted"
	StopHeaderBoundary StopReason = "header_boundary"
	StopRecordBoundary StopReason = "record_boundary"
	StopMaxRounds      StopReason = "max_rounds"
)

// HarvestStats represents the statistics of a harvest run.
type HarvestStats struct {
	Rounds         int        `json:"rounds"`
	Scrolls        int        `json:"scrolls"`
	GrownScrolls   int        `json:"grownScrolls"`
	Elements       int        `json:"elements"`
	Headers        int        `json:"headers"`
	SearchActivity int        `json:"searchActivity"`
	ViewedLogs     int        `json:"viewedLogs"`
	Records        int        `json:"records"`
	Duplicates     int        `json:"duplicates"`
	Skipped        int        `json:"skipped"`
	Errors         int        `json:"errors"`
	StopReason     StopReason `json:"stopReason"`
	HarvestStart   time.Time  `json:"harvestStart"`
	HarvestEnd     time.Time  `json:"harvestEnd"`
}

// Duration returns how long the run took.
func (s *HarvestStats) Duration() time.Duration {
	if s.HarvestEnd.IsZero() {
		return time.Since(s.HarvestStart)
	}
	return s.HarvestEnd.Sub(s.HarvestStart)
}
