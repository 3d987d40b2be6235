package resolve

import (
	"github.com/warptools/scriptorder/pkg/scriptorderapi"
)

// DanglingPolicy says what to do with a dependency id that no supplied script has.
type DanglingPolicy int

const (
	// DanglingIgnore drops the edge.  The depending script is ordered as if it never declared it.
	DanglingIgnore DanglingPolicy = iota

	// DanglingReject fails the resolution with scriptorder-error-invalid-reference.
	DanglingReject

	// DanglingImplicit treats the unknown id as a script with no dependencies of its own.
	// It shows up in the result, so the result can be longer than the input.
	DanglingImplicit
)

func (p DanglingPolicy) String() string {
	switch p {
	case DanglingIgnore:
		return "ignore"
	case DanglingReject:
		return "reject"
	case DanglingImplicit:
		return "implicit"
	default:
		return "invalid"
	}
}

// ParseDanglingPolicy is the inverse of DanglingPolicy.String.
//
// Errors:
//
//   - scriptorder-error-usage -- if the name isn't one of "ignore", "reject", or "implicit".
func ParseDanglingPolicy(name string) (DanglingPolicy, error) {
	switch name {
	case "ignore", "":
		return DanglingIgnore, nil
	case "reject":
		return DanglingReject, nil
	case "implicit":
		return DanglingImplicit, nil
	default:
		return DanglingIgnore, scriptorderapi.ErrorUsage("unknown dangling reference policy %q (expected ignore, reject, or implicit)", name)
	}
}
