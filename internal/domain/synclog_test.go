package domain

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncSummaryStatus(t *testing.T) {
	tests := []struct {
		name    string
		summary SyncSummary
		want    SyncStatus
	}{
		{"all succeeded", SyncSummary{Created: 3, Updated: 2}, SyncStatusSuccess},
		{"some failed", SyncSummary{Created: 3, Failed: 1}, SyncStatusPartial},
		{"soft errors only", SyncSummary{Updated: 1, Errors: []string{"codes fetch failed"}}, SyncStatusPartial},
		{"nothing succeeded", SyncSummary{Failed: 4}, SyncStatusFailed},
		{"empty run", SyncSummary{}, SyncStatusSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.summary.Status())
		})
	}
}

func TestSyncSummaryMessageCounts(t *testing.T) {
	s := SyncSummary{Fetched: 10, Created: 4, Updated: 5, Failed: 1}
	assert.Equal(t, "Fetched: 10, Created: 4, Updated: 5, Failed: 1", s.Message())
}

func TestSyncSummaryMessageTruncatesErrors(t *testing.T) {
	s := SyncSummary{Failed: 8}
	for i := 0; i < 8; i++ {
		s.Errors = append(s.Errors, fmt.Sprintf("record %d broke", i))
	}
	msg := s.Message()
	assert.Contains(t, msg, "record 0 broke")
	assert.Contains(t, msg, "record 4 broke")
	assert.NotContains(t, msg, "record 5 broke")
	assert.Equal(t, maxSummaryErrors, strings.Count(msg, "broke"))
}

func TestBatchResultRecord(t *testing.T) {
	var b BatchResult
	b.Record(Created("1", nil))
	b.Record(Updated("2", nil))
	b.Record(Skipped("3", "bad payload"))
	b.Record(Skipped("4", ""))

	assert.Equal(t, 1, b.Created)
	assert.Equal(t, 1, b.Updated)
	assert.Equal(t, 1, b.Failed)
	assert.Equal(t, []string{"3: bad payload"}, b.Errors)
}

func TestSyncSummaryAddAndMerge(t *testing.T) {
	var s SyncSummary
	s.Add(BatchResult{Created: 2, Failed: 1, Errors: []string{"x"}})
	s.Merge(SyncSummary{Updated: 3, Errors: []string{"y"}})

	assert.Equal(t, 2, s.Created)
	assert.Equal(t, 3, s.Updated)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, []string{"x", "y"}, s.Errors)
}
