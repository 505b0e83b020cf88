package kernel

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID extracts the current goroutine id from runtime.Stack output,
// avoiding linkname and unsafe. The header line reads
// "goroutine 123 [running]:".
func goroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0
	}
	buf = buf[len(prefix):]

	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		return 0
	}
	gid, err := strconv.ParseUint(string(buf[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}
