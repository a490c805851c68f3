package value

import "time"

// TimeSentinel is the timestamp a caller supplies to mean "use the engine's
// clock". The engine substitutes Now() at the moment the set is applied.
const TimeSentinel int64 = 0

var epoch = time.Now()
var epochMicros = epoch.UnixMicro()

// Now returns the engine's shared microsecond clock reading. The reading is
// anchored to the wall clock at process start and advanced with the monotonic
// clock, so it never goes backwards within a process.
func Now() int64 {
	return epochMicros + time.Since(epoch).Microseconds()
}
