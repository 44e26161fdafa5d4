package midi

import "time"

// Clock supplies the millisecond reading used for packet timestamps
type Clock interface {
	NowMillis() int64
}

// SystemClock reads wall-clock Unix milliseconds
type SystemClock struct{}

func (SystemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// FixedClock always returns the same reading
type FixedClock int64

func (c FixedClock) NowMillis() int64 {
	return int64(c)
}
