// Package hyperloglog estimates the number of distinct records in a stream
// using a fixed amount of memory.
package hyperloglog

import (
	"hash/fnv"
	"math"
	"math/bits"
)

// DefaultPrecision gives ~16KB of registers and ~0.81% standard error.
const DefaultPrecision uint8 = 14

// Sketch is a HyperLogLog cardinality estimator.
//
// Memory usage: 2^precision bytes.
// Standard error: ~1.04 / sqrt(2^precision).
type Sketch struct {
	precision uint8
	registers []uint8
	alpha     float64
}

// New creates a sketch with the given precision (4-18).
// Out of range values fall back to DefaultPrecision.
func New(precision uint8) *Sketch {
	if precision < 4 || precision > 18 {
		precision = DefaultPrecision
	}

	m := 1 << precision

	var alpha float64
	switch m {
	case 16:
		alpha = 0.673
	case 32:
		alpha = 0.697
	case 64:
		alpha = 0.709
	default:
		alpha = 0.7213 / (1 + 1.079/float64(m))
	}

	return &Sketch{
		precision: precision,
		registers: make([]uint8, m),
		alpha:     alpha,
	}
}

// Precision returns the number of index bits.
func (s *Sketch) Precision() uint8 {
	return s.precision
}

// AddBytes records one element.
func (s *Sketch) AddBytes(b []byte) {
	h := fnv.New64a()
	h.Write(b)
	s.addHash(h.Sum64())
}

// Add records one element.
func (s *Sketch) Add(value string) {
	s.AddBytes([]byte(value))
}

func (s *Sketch) addHash(hash uint64) {
	idx := hash & ((1 << s.precision) - 1)
	w := hash >> s.precision

	// rank = position of the first set bit in the remaining 64-p bits
	rank := uint8(64 - s.precision + 1)
	if w != 0 {
		rank = uint8(bits.LeadingZeros64(w) - int(s.precision) + 1)
	}

	if rank > s.registers[idx] {
		s.registers[idx] = rank
	}
}

// Estimate returns the approximate number of distinct elements added.
// Hashes are 64 bits wide, so only the small-range (linear counting)
// correction applies.
func (s *Sketch) Estimate() uint64 {
	var sum float64
	var zeros int
	for _, r := range s.registers {
		sum += math.Ldexp(1, -int(r))
		if r == 0 {
			zeros++
		}
	}

	m := float64(len(s.registers))
	raw := s.alpha * m * m / sum

	if raw <= 2.5*m && zeros > 0 {
		return uint64(m * math.Log(m/float64(zeros)))
	}
	return uint64(raw)
}

// Merge folds other into s. Both sketches must share a precision.
func (s *Sketch) Merge(other *Sketch) error {
	if s.precision != other.precision {
		return ErrPrecisionMismatch
	}
	for i, r := range other.registers {
		if r > s.registers[i] {
			s.registers[i] = r
		}
	}
	return nil
}

// ErrPrecisionMismatch is returned when merging sketches of different precision.
var ErrPrecisionMismatch = &Error{"precision mismatch"}

// Error is a hyperloglog failure.
type Error struct {
	message string
}

func (e *Error) Error() string {
	return "hyperloglog: " + e.message
}
