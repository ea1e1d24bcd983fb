package chunker

import (
	"math/bits"
	"strconv"
	"strings"
)

// rootSet is a bitset over chunk root indices
type rootSet []uint64

func (s rootSet) add(i int) rootSet {
	word := i / 64
	for len(s) <= word {
		s = append(s, 0)
	}
	s[word] |= 1 << (uint(i) % 64)
	return s
}

func (s rootSet) has(i int) bool {
	word := i / 64
	return word < len(s) && s[word]&(1<<(uint(i)%64)) != 0
}

func (s rootSet) count() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

func (s rootSet) union(o rootSet) rootSet {
	out := append(rootSet(nil), s...)
	for i, w := range o {
		for len(out) <= i {
			out = append(out, 0)
		}
		out[i] |= w
	}
	return out
}

// members returns the set indices in ascending order
func (s rootSet) members() []int {
	var out []int
	for i, w := range s {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, i*64+b)
			w &^= 1 << uint(b)
		}
	}
	return out
}

// key is a canonical string form, equal for equal sets
func (s rootSet) key() string {
	end := len(s)
	for end > 0 && s[end-1] == 0 {
		end--
	}
	var b strings.Builder
	for i := 0; i < end; i++ {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.FormatUint(s[i], 16))
	}
	return b.String()
}
