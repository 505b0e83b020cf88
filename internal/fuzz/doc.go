// Package fuzztests houses Go fuzz harnesses that exercise the trace log
// reader (bytes -> dump -> summary). Its goal is to smoke test robustness
// and guard against panics or allocator explosions on arbitrary inputs.
//
// It does not generate corpora, write files, or execute the CLI.

package fuzztests
