package pipeline

// scanFrames extracts every complete 0x80..0x81-delimited frame from
// buf, returning the frames found (sharing buf's backing array; callers
// must not retain them past the next mutation of buf) and the number of
// leading bytes consumed. An unmatched trailing 0x80 is left in place
// for the next call -- partial-packet preservation -- but if no
// unmatched start byte is pending, the rest of buf cannot become a
// frame and is discarded outright (consumed = len(buf)), matching the
// original's ClearProcessedData: without this, a noisy or
// misconfigured socket feed that never emits 0x80 would grow
// processDeque without bound.
func scanFrames(buf []byte) (frames [][]byte, consumed int) {
	start := -1
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case 0x80:
			start = i
		case 0x81:
			if start >= 0 {
				frames = append(frames, buf[start:i+1])
				consumed = i + 1
				start = -1
			}
		}
	}
	if start < 0 {
		consumed = len(buf)
	} else {
		consumed = start
	}
	return frames, consumed
}
