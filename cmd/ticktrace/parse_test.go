package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"ticktrace/internal/dump"
	"ticktrace/internal/trace"
)

func sampleSummary() *dump.Summary {
	return &dump.Summary{
		Blocks:     2,
		Records:    5,
		Skipped:    1,
		FirstTick:  10,
		LastTick:   40,
		FinalTotal: 5,
		ByKind: map[trace.Kind]int{
			trace.KindQueueSend:    2,
			trace.KindQueueReceive: 2,
			trace.KindTaskDelete:   1,
		},
		ByTask: map[string]int{"Bus": 2, "printer": 3},
		Queues: map[string]dump.QueueTraffic{
			"0x3ffb0040": {Sends: 2, Receives: 2},
		},
	}
}

func TestRenderSummaryPretty(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	renderSummaryPretty(&buf, sampleSummary(), false)
	out := buf.String()
	for _, want := range []string{
		"5 records in 2 blocks",
		"ticks 10..40",
		"skipped 1 non-trace lines",
		"EVT_QUEUE_SEND",
		"printer",
		"0x3ffb0040",
		"sends 2 (0 failed), receives 2 (0 failed)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderSummaryPrettyQuiet(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	renderSummaryPretty(&buf, sampleSummary(), true)
	out := buf.String()
	if strings.Contains(out, "EVT_QUEUE_SEND") || strings.Contains(out, "\ntasks\n") {
		t.Fatalf("quiet output should omit the tables:\n%s", out)
	}
	if !strings.Contains(out, "5 records in 2 blocks") {
		t.Fatalf("quiet output should keep the headline:\n%s", out)
	}
}

func TestRenderSummaryJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := renderSummaryJSON(&buf, sampleSummary()); err != nil {
		t.Fatalf("renderSummaryJSON: %v", err)
	}
	var payload parsePayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.Records != 5 || payload.Blocks != 2 {
		t.Fatalf("payload counts = %+v", payload)
	}
	if payload.Events["EVT_QUEUE_SEND"] != 2 {
		t.Fatalf("events payload = %v", payload.Events)
	}
	if payload.Queues["0x3ffb0040"].Sends != 2 {
		t.Fatalf("queues payload = %v", payload.Queues)
	}
}
