package script

import (
	"strconv"
	"strings"
)

// Script is one schedulable unit: an id, and the ids of the scripts that must run before it.
//
// Script is a value type.  Nothing is validated at construction:
// self-references, negative ids, and repeated dependencies are all accepted,
// and it's up to the resolver to make sense of them.
type Script struct {
	id           int
	dependencies []int
}

// New makes a Script.  The dependency list is copied.
func New(id int, dependencies ...int) Script {
	s := Script{id: id}
	if len(dependencies) > 0 {
		s.dependencies = append([]int(nil), dependencies...)
	}
	return s
}

func (s Script) ID() int {
	return s.id
}

// Dependencies returns a copy of the declared dependency ids, in declaration order.
func (s Script) Dependencies() []int {
	if len(s.dependencies) == 0 {
		return nil
	}
	return append([]int(nil), s.dependencies...)
}

// NumDependencies is len(s.Dependencies()) without the copy.
func (s Script) NumDependencies() int {
	return len(s.dependencies)
}

// EachDependency calls fn for each declared dependency id, in order, without copying.
func (s Script) EachDependency(fn func(dep int)) {
	for _, d := range s.dependencies {
		fn(d)
	}
}

func (s Script) String() string {
	var sb strings.Builder
	sb.WriteString("script ")
	sb.WriteString(strconv.Itoa(s.id))
	if len(s.dependencies) == 0 {
		return sb.String()
	}
	sb.WriteString(" (depends on ")
	for i, d := range s.dependencies {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(d))
	}
	sb.WriteString(")")
	return sb.String()
}
