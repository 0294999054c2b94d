package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replenix/replenix/snapshot"
)

func decode(t *testing.T, e Event) map[string]interface{} {
	t.Helper()
	data, err := EncodeEvent(e)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestEncodeEventStepTags(t *testing.T) {
	meta := DocumentMeta{Supplier: "Acme",
		SnapshotDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	cases := []struct {
		event Event
		step  string
	}{
		{CSVParsingEvent{}, "csv_parsing"},
		{RowRejectedEvent{Row: 1, Reason: snapshot.ReasonInvalidNumber}, "row_rejected"},
		{ItemGroupingEvent{}, "item_grouping"},
		{ItemGroupingDoneEvent{Count: 3}, "item_grouping_done"},
		{AnalysisEvent{scope(meta)}, "analysis"},
		{PREvent{scope(meta)}, "pr"},
		{EmailEvent{scope(meta)}, "email"},
		{EvaluationEvent{scope(meta)}, "evaluation"},
		{GeneratingFileEvent{groupScope: scope(meta), Filename: "f.md"}, "generating_file"},
		{FileReadyEvent{groupScope: scope(meta), Filename: "f.md", Content: "x"}, "file_ready"},
		{CompleteEvent{Result: &Result{}}, "complete"},
		{ErrorEvent{Message: "boom"}, "error"},
	}

	for _, tc := range cases {
		m := decode(t, tc.event)
		assert.Equal(t, tc.step, m["step"], tc.step)
	}
}

func TestEncodeEventPayloads(t *testing.T) {
	meta := DocumentMeta{Supplier: "Acme",
		SnapshotDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	m := decode(t, ItemGroupingDoneEvent{Count: 2})
	assert.Equal(t, float64(2), m["count"])

	m = decode(t, RowRejectedEvent{Row: 3, Reason: snapshot.ReasonInvalidNumber,
		Field: "current_stock", Detail: "bad digit"})
	assert.Equal(t, float64(3), m["row"])
	assert.Equal(t, string(snapshot.ReasonInvalidNumber), m["reason"])
	assert.Equal(t, "current_stock", m["field"])

	m = decode(t, AnalysisEvent{scope(meta)})
	assert.Equal(t, "Acme", m["supplier"])

	m = decode(t, FileReadyEvent{groupScope: scope(meta), Filename: "report.md", Content: "body"})
	assert.Equal(t, "report.md", m["filename"])
	assert.Equal(t, "body", m["content"])

	m = decode(t, ErrorEvent{Message: "boom", Supplier: "Acme"})
	assert.Equal(t, "boom", m["message"])
	assert.Equal(t, "Acme", m["supplier"])

	// Run-level errors omit the group scope entirely
	m = decode(t, ErrorEvent{Message: "boom"})
	_, hasSupplier := m["supplier"]
	assert.False(t, hasSupplier)
}

func TestEncodeEventUnknownType(t *testing.T) {
	_, err := EncodeEvent(unknownEvent{})
	assert.Error(t, err)
}

type unknownEvent struct{}

func (unknownEvent) Step() string { return "unknown" }
