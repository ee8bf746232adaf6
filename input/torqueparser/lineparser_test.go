package torqueparser

import (
	"testing"

	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/stretchr/testify/assert"

	"github.com/hpcops/torque-slack-agent/base"
)

func TestLineParser(t *testing.T) {
	mfactory := promreg.NewMetricFactory("torque_", nil, nil)
	parser := NewLineParser(logger.WithField("test", t.Name()), base.SourceServerLog, mfactory)

	good := parser.Parse("02/27/2015 00:59:44;0100;PBS_Server.23657;Job;22495[].clusterhn.cluster.com;enqueuing into default, state 1 hop 1")
	if assert.NotNil(t, good) {
		assert.Equal(t, base.SourceServerLog, good.Source)
		assert.Equal(t, "Job", good.Section)
	}

	assert.Nil(t, parser.Parse(""))        // blank lines skipped silently, not counted
	assert.Nil(t, parser.Parse("garbage")) // malformed lines dropped

	assert.Equal(t, `torque_parser_dropped_line_bytes_total{source="server"} 7
torque_parser_dropped_lines_total{source="server"} 1
torque_parser_passed_line_bytes_total{source="server"} 113
torque_parser_passed_lines_total{source="server"} 1
`, promext.DumpMetrics("", true, false, mfactory))
}

func TestLineParserAccountingSource(t *testing.T) {
	mfactory := promreg.NewMetricFactory("torque_", nil, nil)
	parser := NewLineParser(logger.WithField("test", t.Name()), base.SourceAccountingLog, mfactory)

	event := parser.Parse("02/26/2015 00:04:48;Q;22320.clusterhn.cluster.com;queue=default")
	if assert.NotNil(t, event) {
		assert.Equal(t, base.SourceAccountingLog, event.Source)
		assert.Equal(t, "Q", event.State)
	}
}
