package xv6fs

import "testing"

// newTestImage formats a fresh in-memory image of the given size and
// returns it ready for use, failing the test immediately on any format
// error.
func newTestImage(t *testing.T, size, ninodes, nlog uint32) *Image {
	t.Helper()
	buf := make([]byte, uint64(size)*BSize)
	im := NewImage(buf)
	if _, err := Format(im, size, ninodes, nlog); err != nil {
		t.Fatalf("Format: %v", err)
	}
	return im
}
