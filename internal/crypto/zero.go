package crypto

// Zero overwrites key material in memory. Best effort: Go gives no guarantee
// the GC has not already copied the slice, but it keeps secrets out of casual
// heap dumps.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// Zero32 clears a fixed-size key array in place.
func Zero32(x *[32]byte) {
	for i := range x {
		x[i] = 0
	}
}
