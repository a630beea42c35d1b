package benchmark

import (
	"bytes"
	"testing"
)

// benchSecret is a fixed 32-byte signing and sealing key.
var benchSecret = bytes.Repeat([]byte{0x5a}, 32)

// CacheValueSizes approximates a cached user record at a few sizes.
var CacheValueSizes = []int{128, 512, 2048}

func mustNoErr(b *testing.B, err error) {
	b.Helper()
	if err != nil {
		b.Fatal(err)
	}
}
