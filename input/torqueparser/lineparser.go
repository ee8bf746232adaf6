package torqueparser

import (
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"

	"github.com/hpcops/torque-slack-agent/base"
	"github.com/hpcops/torque-slack-agent/defs"
)

// ParseLineFunc parses one raw line into an event or a parse failure
type ParseLineFunc func(line string) (*base.Event, error)

// LineParser binds a pure parse function to the malformed-line policy: log the failure,
// count it and drop the line, never aborting the surrounding loop.
type LineParser struct {
	logger    logger.Logger
	parseLine ParseLineFunc
	counters  *base.EventCounterSet
}

// NewLineParser creates a LineParser for the given source's line format
func NewLineParser(parentLogger logger.Logger, source base.LogSource, metricCreator promreg.MetricCreator) *LineParser {
	var parseLine ParseLineFunc
	switch source {
	case base.SourceServerLog:
		parseLine = ParseServerLine
	case base.SourceAccountingLog:
		parseLine = ParseAccountingLine
	default:
		parentLogger.Panicf("unsupported log source: %d", source)
	}

	return &LineParser{
		logger: parentLogger.WithFields(logger.Fields{
			defs.LabelComponent: "LineParser",
			defs.LabelSource:    source.String(),
		}),
		parseLine: parseLine,
		counters:  base.NewEventCounterSet(metricCreator.AddOrGetPrefix("parser_", []string{defs.LabelSource}, []string{source.String()})),
	}
}

// Parse parses one complete line and returns the event, or nil for a dropped line
//
// Blank lines are skipped without warning; they show up at the end of replayed files.
func (parser *LineParser) Parse(line string) *base.Event {
	if line == "" {
		return nil
	}

	event, err := parser.parseLine(line)
	if err != nil {
		parser.counters.CountLineDrop(len(line))
		parser.logger.Warnf("dropped line: %s", err.Error())
		return nil
	}

	parser.counters.CountLinePass(len(line))
	return event
}
