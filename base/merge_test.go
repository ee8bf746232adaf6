package base

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMergeByTime(t *testing.T) {
	at := func(sec int) time.Time {
		return time.Date(2015, 2, 26, 0, 0, sec, 0, time.Local)
	}
	server := []*Event{
		{Time: at(1), Source: SourceServerLog, Message: "s1"},
		{Time: at(4), Source: SourceServerLog, Message: "s4"},
		{Time: at(5), Source: SourceServerLog, Message: "s5"},
	}
	accounting := []*Event{
		{Time: at(2), Source: SourceAccountingLog, JobID: "a2"},
		{Time: at(4), Source: SourceAccountingLog, JobID: "a4"},
	}

	merged := MergeByTime(server, accounting)
	if assert.Len(t, merged, 5) {
		assert.Equal(t, "s1", merged[0].Message)
		assert.Equal(t, "a2", merged[1].JobID)
		// equal timestamps keep the earlier sequence first
		assert.Equal(t, "s4", merged[2].Message)
		assert.Equal(t, "a4", merged[3].JobID)
		assert.Equal(t, "s5", merged[4].Message)
	}
}

func TestMergeByTimeEmptyInputs(t *testing.T) {
	assert.Empty(t, MergeByTime())
	assert.Empty(t, MergeByTime(nil, nil))

	single := []*Event{{Time: time.Now(), Message: "only"}}
	merged := MergeByTime(nil, single)
	if assert.Len(t, merged, 1) {
		assert.Equal(t, "only", merged[0].Message)
	}
}
