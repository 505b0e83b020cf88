package demo

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the Item layout changes.
const itemSchemaVersion uint16 = 1

// Item is the payload producers push through the queue, msgpack-encoded
// so the consumer can check it survived the trip intact.
type Item struct {
	Schema uint16
	Seq    uint64
	Source string // producing task's name
	Tick   uint32 // tick count at production time
}

func encodeItem(it *Item) ([]byte, error) {
	it.Schema = itemSchemaVersion
	b, err := msgpack.Marshal(it)
	if err != nil {
		return nil, fmt.Errorf("encode item: %w", err)
	}
	return b, nil
}

func decodeItem(b []byte) (*Item, error) {
	var it Item
	if err := msgpack.Unmarshal(b, &it); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	if it.Schema != itemSchemaVersion {
		return nil, fmt.Errorf("item schema %d, want %d", it.Schema, itemSchemaVersion)
	}
	return &it, nil
}
