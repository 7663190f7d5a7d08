package voice

import (
	"strconv"
	"strings"
)

// OperatorSet is a set of operator ids stored as a bitmask (bit 0 = operator 1)
type OperatorSet uint8

// AllOperators contains operators 1-6
const AllOperators OperatorSet = 0x3F

// NewOperatorSet builds a set from ids
func NewOperatorSet(ids ...OperatorID) OperatorSet {
	var s OperatorSet
	for _, id := range ids {
		if id.Valid() {
			s |= 1 << uint(id.Index())
		}
	}
	return s
}

// Contains reports whether id is in s
func (s OperatorSet) Contains(id OperatorID) bool {
	return id.Valid() && s&(1<<uint(id.Index())) != 0
}

// IDs returns the members of s in ascending order
func (s OperatorSet) IDs() []OperatorID {
	ids := make([]OperatorID, 0, NumOperators)
	for _, id := range OperatorIDs() {
		if s.Contains(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of members
func (s OperatorSet) Len() int {
	n := 0
	for v := s & AllOperators; v != 0; v &= v - 1 {
		n++
	}
	return n
}

func (s OperatorSet) String() string {
	parts := make([]string, 0, NumOperators)
	for _, id := range s.IDs() {
		parts = append(parts, strconv.Itoa(int(id)))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// carriers of algorithms 1-32, taken from the DX7 algorithm chart
var carriers = [NumAlgorithms]OperatorSet{
	NewOperatorSet(1, 3),             // 1
	NewOperatorSet(1, 3),             // 2
	NewOperatorSet(1, 4),             // 3
	NewOperatorSet(1, 4),             // 4
	NewOperatorSet(1, 3, 5),          // 5
	NewOperatorSet(1, 3, 5),          // 6
	NewOperatorSet(1, 3),             // 7
	NewOperatorSet(1, 3),             // 8
	NewOperatorSet(1, 3),             // 9
	NewOperatorSet(1, 4),             // 10
	NewOperatorSet(1, 4),             // 11
	NewOperatorSet(1, 3),             // 12
	NewOperatorSet(1, 3),             // 13
	NewOperatorSet(1, 3),             // 14
	NewOperatorSet(1, 3),             // 15
	NewOperatorSet(1),                // 16
	NewOperatorSet(1),                // 17
	NewOperatorSet(1),                // 18
	NewOperatorSet(1, 4, 5),          // 19
	NewOperatorSet(1, 2, 4),          // 20
	NewOperatorSet(1, 2, 4, 5),       // 21
	NewOperatorSet(1, 3, 4, 5),       // 22
	NewOperatorSet(1, 2, 4, 5),       // 23
	NewOperatorSet(1, 2, 3, 4, 5),    // 24
	NewOperatorSet(1, 2, 3, 4, 5),    // 25
	NewOperatorSet(1, 2, 4),          // 26
	NewOperatorSet(1, 2, 4),          // 27
	NewOperatorSet(1, 3, 6),          // 28
	NewOperatorSet(1, 2, 3, 5),       // 29
	NewOperatorSet(1, 2, 3, 6),       // 30
	NewOperatorSet(1, 2, 3, 4, 5),    // 31
	NewOperatorSet(1, 2, 3, 4, 5, 6), // 32
}

// Carriers returns the operators of algorithm a that produce audible output.
// Invalid algorithms have no carriers.
func Carriers(a AlgorithmID) OperatorSet {
	if !a.Valid() {
		return 0
	}
	return carriers[a-1]
}

// Modulators returns the operators of algorithm a that modulate other operators
func Modulators(a AlgorithmID) OperatorSet {
	if !a.Valid() {
		return 0
	}
	return AllOperators &^ carriers[a-1]
}

// IsCarrier reports whether operator id is a carrier in algorithm a
func IsCarrier(a AlgorithmID, id OperatorID) bool {
	return Carriers(a).Contains(id)
}

// AlgorithmInfo is the carrier/modulator split of one algorithm
type AlgorithmInfo struct {
	Algorithm  AlgorithmID  `json:"algorithm"`
	Carriers   []OperatorID `json:"carriers"`
	Modulators []OperatorID `json:"modulators"`
}

// DescribeAlgorithm returns the operator partition of a
func DescribeAlgorithm(a AlgorithmID) AlgorithmInfo {
	return AlgorithmInfo{
		Algorithm:  a,
		Carriers:   Carriers(a).IDs(),
		Modulators: Modulators(a).IDs(),
	}
}

// Algorithms describes all 32 algorithms in order
func Algorithms() []AlgorithmInfo {
	out := make([]AlgorithmInfo, 0, NumAlgorithms)
	for a := AlgorithmID(1); a <= NumAlgorithms; a++ {
		out = append(out, DescribeAlgorithm(a))
	}
	return out
}
