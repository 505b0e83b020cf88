// Package configsembed provides the embedded example workload config
// shipped with the CLI.
package configsembed

import (
	_ "embed"
)

//go:embed ticktrace.toml
var exampleConfig []byte

// Example returns the annotated example config. Callers get a fresh copy.
func Example() []byte {
	out := make([]byte, len(exampleConfig))
	copy(out, exampleConfig)
	return out
}
