package bridge

// CopyTerminated copies src into dst, writing at most capacity bytes. When the
// copied length is strictly below capacity a zero byte is appended after it.
// capacity is clamped to [0, len(dst)] so dst is never written out of bounds.
// It reports the number of payload bytes written and whether a terminator
// was appended.
func CopyTerminated(dst []byte, capacity int64, src []byte) (int, bool) {
	limit := effectiveCapacity(dst, capacity)
	n := len(src)
	if int64(n) > limit {
		n = int(limit)
	}
	copy(dst[:n], src[:n])
	if int64(n) < limit {
		dst[n] = 0
		return n, true
	}
	return n, false
}

func effectiveCapacity(dst []byte, capacity int64) int64 {
	if capacity <= 0 {
		return 0
	}
	if capacity > int64(len(dst)) {
		return int64(len(dst))
	}
	return capacity
}
