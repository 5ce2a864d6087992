package scratch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_Resize_PreservesPriorContents(t *testing.T) {
	var b Buffer
	s := b.Resize(3)
	s[0], s[1], s[2] = 1, 2, 3

	grown := b.Resize(5)
	assert.Equal(t, []float32{1, 2, 3, 0, 0}, grown)
}

func Test_Reserve_NeverShrinksCapacity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var b Buffer
		sizes := rapid.SliceOfN(rapid.IntRange(0, 50), 1, 10).Draw(t, "sizes")

		maxCap := 0
		for _, n := range sizes {
			b.Resize(n)
			if cap(b.Slice()) < n {
				t.Fatalf("capacity %d below requested size %d", cap(b.Slice()), n)
			}
			if cap(b.data) < maxCap {
				t.Fatalf("capacity shrank: now %d, previously saw %d", cap(b.data), maxCap)
			}
			if cap(b.data) > maxCap {
				maxCap = cap(b.data)
			}
		}
	})
}

func Test_Slice_MatchesLastResizeLength(t *testing.T) {
	var b Buffer
	b.Resize(4)
	b.Resize(2)
	assert.Len(t, b.Slice(), 2)
}
