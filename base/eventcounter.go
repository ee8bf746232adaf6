package base

import (
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

// EventCounterSet tracks pass/drop metrics for one stream of incoming log lines
//
// Counters created here may duplicate with others as long as the labels match.
type EventCounterSet struct {
	passedLinesTotal  promext.RWCounter
	passedBytesTotal  promext.RWCounter
	droppedLinesTotal promext.RWCounter
	droppedBytesTotal promext.RWCounter
}

// NewEventCounterSet creates an EventCounterSet from the given metric creator
func NewEventCounterSet(metricCreator promreg.MetricCreator) *EventCounterSet {
	return &EventCounterSet{
		passedLinesTotal:  metricCreator.AddOrGetCounter("passed_lines_total", "Numbers of log lines parsed into events", nil, nil),
		passedBytesTotal:  metricCreator.AddOrGetCounter("passed_line_bytes_total", "Total length in bytes of log lines parsed into events", nil, nil),
		droppedLinesTotal: metricCreator.AddOrGetCounter("dropped_lines_total", "Numbers of log lines dropped as malformed", nil, nil),
		droppedBytesTotal: metricCreator.AddOrGetCounter("dropped_line_bytes_total", "Total length in bytes of log lines dropped as malformed", nil, nil),
	}
}

// CountLinePass updates counters for a line successfully parsed into an event
func (cset *EventCounterSet) CountLinePass(length int) {
	cset.passedLinesTotal.Inc()
	cset.passedBytesTotal.Add(uint64(length))
}

// CountLineDrop updates counters for a malformed line dropped by policy
func (cset *EventCounterSet) CountLineDrop(length int) {
	cset.droppedLinesTotal.Inc()
	cset.droppedBytesTotal.Add(uint64(length))
}
