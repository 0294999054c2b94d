package pipeline

import (
	"encoding/json"
	"time"

	"github.com/replenix/replenix/errors"
	"github.com/replenix/replenix/snapshot"
)

// Event is one progress record in a run's outbound stream. The set of
// variants is closed: every step value has exactly one payload type, and
// EncodeEvent switches over all of them.
type Event interface {
	Step() string
}

// CSVParsingEvent marks the start of snapshot ingestion.
type CSVParsingEvent struct{}

func (CSVParsingEvent) Step() string { return "csv_parsing" }

// RowRejectedEvent surfaces one input row dropped during normalization.
// Rejections are recovered locally; the run continues with the rows
// that validated.
type RowRejectedEvent struct {
	Row    int                     `json:"row"`
	Reason snapshot.RowErrorReason `json:"reason"`
	Field  string                  `json:"field,omitempty"`
	Detail string                  `json:"detail,omitempty"`
}

func (RowRejectedEvent) Step() string { return "row_rejected" }

// ItemGroupingEvent marks the start of supplier grouping.
type ItemGroupingEvent struct{}

func (ItemGroupingEvent) Step() string { return "item_grouping" }

// ItemGroupingDoneEvent reports how many supplier groups were formed.
type ItemGroupingDoneEvent struct {
	Count int `json:"count"`
}

func (ItemGroupingDoneEvent) Step() string { return "item_grouping_done" }

// groupScope carries the group identity shared by all stage events.
type groupScope struct {
	Supplier     string    `json:"supplier"`
	SnapshotDate time.Time `json:"snapshot_date"`
}

func scope(meta DocumentMeta) groupScope {
	return groupScope{Supplier: meta.Supplier, SnapshotDate: meta.SnapshotDate}
}

// AnalysisEvent marks the start of a group's analysis stage.
type AnalysisEvent struct{ groupScope }

func (AnalysisEvent) Step() string { return "analysis" }

// PREvent marks the start of a group's purchase request stage.
type PREvent struct{ groupScope }

func (PREvent) Step() string { return "pr" }

// EmailEvent marks the start of a group's email stage.
type EmailEvent struct{ groupScope }

func (EmailEvent) Step() string { return "email" }

// EvaluationEvent marks the start of a group's evaluation stage.
type EvaluationEvent struct{ groupScope }

func (EvaluationEvent) Step() string { return "evaluation" }

// GeneratingFileEvent announces that a document is being rendered.
type GeneratingFileEvent struct {
	groupScope
	Filename string `json:"filename"`
}

func (GeneratingFileEvent) Step() string { return "generating_file" }

// FileReadyEvent delivers a rendered document.
type FileReadyEvent struct {
	groupScope
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

func (FileReadyEvent) Step() string { return "file_ready" }

// CompleteEvent is the terminal event of a successful run, carrying the
// full aggregate result including partial output from failed groups.
type CompleteEvent struct {
	Result *Result `json:"result"`
}

func (CompleteEvent) Step() string { return "complete" }

// ErrorEvent reports a failure. Group-scoped errors carry the supplier
// and stage; run-level errors leave them empty and terminate the stream.
// A run-terminating error retains any artifacts already produced.
type ErrorEvent struct {
	Message      string     `json:"message"`
	Supplier     string     `json:"supplier,omitempty"`
	SnapshotDate *time.Time `json:"snapshot_date,omitempty"`
	Stage        Stage      `json:"stage,omitempty"`
	Partial      *Result    `json:"partial,omitempty"`
}

func (ErrorEvent) Step() string { return "error" }

// groupError builds a group-scoped error event for a failed stage.
func groupError(meta DocumentMeta, stage Stage, err error) ErrorEvent {
	d := meta.SnapshotDate
	return ErrorEvent{
		Message:      err.Error(),
		Supplier:     meta.Supplier,
		SnapshotDate: &d,
		Stage:        stage,
	}
}

type envelope struct {
	Step string `json:"step"`
}

// EncodeEvent serializes an event as a JSON record with a "step" tag.
// The switch is exhaustive over the closed variant set; an unknown type
// is a programming fault.
func EncodeEvent(e Event) ([]byte, error) {
	switch v := e.(type) {
	case CSVParsingEvent:
		return json.Marshal(envelope{v.Step()})
	case RowRejectedEvent:
		return json.Marshal(struct {
			envelope
			RowRejectedEvent
		}{envelope{v.Step()}, v})
	case ItemGroupingEvent:
		return json.Marshal(envelope{v.Step()})
	case ItemGroupingDoneEvent:
		return json.Marshal(struct {
			envelope
			ItemGroupingDoneEvent
		}{envelope{v.Step()}, v})
	case AnalysisEvent:
		return json.Marshal(struct {
			envelope
			groupScope
		}{envelope{v.Step()}, v.groupScope})
	case PREvent:
		return json.Marshal(struct {
			envelope
			groupScope
		}{envelope{v.Step()}, v.groupScope})
	case EmailEvent:
		return json.Marshal(struct {
			envelope
			groupScope
		}{envelope{v.Step()}, v.groupScope})
	case EvaluationEvent:
		return json.Marshal(struct {
			envelope
			groupScope
		}{envelope{v.Step()}, v.groupScope})
	case GeneratingFileEvent:
		return json.Marshal(struct {
			envelope
			GeneratingFileEvent
		}{envelope{v.Step()}, v})
	case FileReadyEvent:
		return json.Marshal(struct {
			envelope
			FileReadyEvent
		}{envelope{v.Step()}, v})
	case CompleteEvent:
		return json.Marshal(struct {
			envelope
			CompleteEvent
		}{envelope{v.Step()}, v})
	case ErrorEvent:
		return json.Marshal(struct {
			envelope
			ErrorEvent
		}{envelope{v.Step()}, v})
	default:
		return nil, errors.AssertionFailedf("unknown pipeline event type %T", e)
	}
}
