package agg

import (
	"fmt"
	"strings"
)

// Op is an aggregate function.
type Op int

const (
	Min Op = iota
	Max
	Sum
	Avg
	Count
)

// String returns a string representation of the aggregation operation
func (op Op) String() string {
	switch op {
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	case Sum:
		return "SUM"
	case Avg:
		return "AVG"
	case Count:
		return "COUNT"
	default:
		return "UNKNOWN"
	}
}

// ParseOp converts a function name, in any case, to an Op.
func ParseOp(s string) (Op, error) {
	switch strings.ToUpper(s) {
	case "MIN":
		return Min, nil
	case "MAX":
		return Max, nil
	case "SUM":
		return Sum, nil
	case "AVG":
		return Avg, nil
	case "COUNT":
		return Count, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate operation: %s", s)
	}
}
