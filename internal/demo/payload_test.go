package demo

import (
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestItemRoundTrip(t *testing.T) {
	b, err := encodeItem(&Item{Seq: 42, Source: "Bus", Tick: 1234})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	it, err := decodeItem(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if it.Seq != 42 || it.Source != "Bus" || it.Tick != 1234 {
		t.Fatalf("round trip = %+v", it)
	}
	if it.Schema != itemSchemaVersion {
		t.Fatalf("schema = %d, want %d", it.Schema, itemSchemaVersion)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := decodeItem([]byte{0xc1, 0xff, 0x00}); err == nil {
		t.Fatalf("garbage decoded")
	}
}

func TestDecodeRejectsWrongSchema(t *testing.T) {
	it := &Item{Seq: 1, Source: "Bus"}
	b, err := encodeItem(it)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// Marshal directly so the schema stamp is not corrected.
	it.Schema = itemSchemaVersion + 1
	b2, err := msgpack.Marshal(it)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := decodeItem(b2); err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("wrong schema accepted: %v", err)
	}
	if _, err := decodeItem(b); err != nil {
		t.Fatalf("current schema rejected: %v", err)
	}
}
