package resolve

import (
	"errors"
	"math/rand"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/warptools/scriptorder/pkg/script"
	"github.com/warptools/scriptorder/pkg/scriptorderapi"
)

const cycleMessage = "There are circular dependencies in the scripts"

// assertValidOrder checks that every id shows up exactly once and that every dependency comes first.
func assertValidOrder(c *qt.C, scripts []script.Script, order []int) {
	c.Helper()
	pos := make(map[int]int, len(order))
	for i, id := range order {
		_, dup := pos[id]
		c.Assert(dup, qt.IsFalse, qt.Commentf("id %d emitted twice in %v", id, order))
		pos[id] = i
	}
	c.Assert(order, qt.HasLen, len(scripts))
	for _, s := range scripts {
		sPos, ok := pos[s.ID()]
		c.Assert(ok, qt.IsTrue, qt.Commentf("id %d missing from %v", s.ID(), order))
		for _, d := range s.Dependencies() {
			dPos, ok := pos[d]
			if !ok {
				continue // dangling, and ignored.
			}
			c.Assert(dPos < sPos, qt.IsTrue, qt.Commentf("%d must come before %d in %v", d, s.ID(), order))
		}
	}
}

func TestResolveOrder(t *testing.T) {
	c := qt.New(t)

	c.Run("empty", func(c *qt.C) {
		order, err := ResolveOrder(nil)
		c.Assert(err, qt.IsNil)
		c.Assert(order, qt.HasLen, 0)
		c.Assert(order, qt.IsNotNil)
	})
	c.Run("singleton", func(c *qt.C) {
		order, err := ResolveOrder([]script.Script{script.New(1)})
		c.Assert(err, qt.IsNil)
		c.Assert(order, qt.DeepEquals, []int{1})
	})
	c.Run("no dependencies keeps input order", func(c *qt.C) {
		order, err := ResolveOrder([]script.Script{script.New(3), script.New(1), script.New(2)})
		c.Assert(err, qt.IsNil)
		c.Assert(order, qt.DeepEquals, []int{3, 1, 2})
	})
	c.Run("independent chains", func(c *qt.C) {
		scripts := []script.Script{
			script.New(1, 2),
			script.New(2),
			script.New(3, 4),
			script.New(4),
		}
		order, err := ResolveOrder(scripts)
		c.Assert(err, qt.IsNil)
		assertValidOrder(c, scripts, order)
		c.Assert(order, qt.DeepEquals, []int{2, 4, 1, 3})
	})
	c.Run("diamond", func(c *qt.C) {
		scripts := []script.Script{
			script.New(1, 2, 3),
			script.New(2, 4),
			script.New(3, 4),
			script.New(4),
		}
		order, err := ResolveOrder(scripts)
		c.Assert(err, qt.IsNil)
		assertValidOrder(c, scripts, order)
		c.Assert(order, qt.DeepEquals, []int{4, 2, 3, 1})
	})
	c.Run("all depend on one", func(c *qt.C) {
		scripts := []script.Script{
			script.New(1, 2, 3, 4),
			script.New(2),
			script.New(3),
			script.New(4),
		}
		order, err := ResolveOrder(scripts)
		c.Assert(err, qt.IsNil)
		c.Assert(order, qt.DeepEquals, []int{2, 3, 4, 1})
	})
	c.Run("disconnected script", func(c *qt.C) {
		scripts := []script.Script{
			script.New(1, 2),
			script.New(2),
			script.New(3),
		}
		order, err := ResolveOrder(scripts)
		c.Assert(err, qt.IsNil)
		assertValidOrder(c, scripts, order)
	})
	c.Run("demo set", func(c *qt.C) {
		scripts := []script.Script{
			script.New(1, 2, 3),
			script.New(2, 3),
			script.New(3),
			script.New(4, 1, 2),
		}
		order, err := ResolveOrder(scripts)
		c.Assert(err, qt.IsNil)
		c.Assert(order, qt.DeepEquals, []int{3, 2, 1, 4})
	})
	c.Run("duplicate dependencies", func(c *qt.C) {
		scripts := []script.Script{
			script.New(1, 2, 2, 2),
			script.New(2),
		}
		order, err := ResolveOrder(scripts)
		c.Assert(err, qt.IsNil)
		c.Assert(order, qt.DeepEquals, []int{2, 1})
	})
}

func TestResolveOrderCycles(t *testing.T) {
	for _, tc := range []struct {
		name    string
		scripts []script.Script
	}{
		{"self dependency", []script.Script{script.New(1, 1)}},
		{"two node", []script.Script{script.New(1, 2), script.New(2, 1)}},
		{"three node", []script.Script{script.New(1, 2), script.New(2, 3), script.New(3, 1)}},
		{"cycle behind an acyclic prefix", []script.Script{
			script.New(1),
			script.New(2, 1, 3),
			script.New(3, 2),
			script.New(4, 1),
		}},
		{"downstream of a cycle", []script.Script{
			script.New(1, 2),
			script.New(2, 1),
			script.New(3, 1),
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := qt.New(t)
			order, err := ResolveOrder(tc.scripts)
			c.Assert(order, qt.IsNil)
			c.Assert(err, qt.ErrorMatches, cycleMessage)
			c.Assert(err, qt.ErrorIs, scriptorderapi.ErrCycleDetected)
			c.Assert(scriptorderapi.Code(err), qt.Equals, scriptorderapi.EcodeCycleDetected)
			c.Assert(errors.Is(err, scriptorderapi.ErrInvalidReference), qt.IsFalse)
		})
	}
}

func TestDanglingPolicies(t *testing.T) {
	scripts := []script.Script{
		script.New(1, 9),
		script.New(2, 1),
	}

	t.Run("ignore", func(t *testing.T) {
		c := qt.New(t)
		order, err := ResolveOrderWith(scripts, DanglingIgnore)
		c.Assert(err, qt.IsNil)
		c.Assert(order, qt.DeepEquals, []int{1, 2})

		dflt, err := ResolveOrder(scripts)
		c.Assert(err, qt.IsNil)
		c.Assert(dflt, qt.DeepEquals, order)
	})
	t.Run("reject", func(t *testing.T) {
		c := qt.New(t)
		order, err := ResolveOrderWith(scripts, DanglingReject)
		c.Assert(order, qt.IsNil)
		c.Assert(err, qt.ErrorIs, scriptorderapi.ErrInvalidReference)
		c.Assert(err, qt.ErrorMatches, "script 1 depends on unknown script 9")

		var e *scriptorderapi.Error
		c.Assert(errors.As(err, &e), qt.IsTrue)
		dep, ok := e.Detail("dependency")
		c.Assert(ok, qt.IsTrue)
		c.Assert(dep, qt.Equals, "9")
	})
	t.Run("implicit", func(t *testing.T) {
		c := qt.New(t)
		order, err := ResolveOrderWith(scripts, DanglingImplicit)
		c.Assert(err, qt.IsNil)
		c.Assert(order, qt.DeepEquals, []int{9, 1, 2})
	})
	t.Run("implicit keeps first reference position", func(t *testing.T) {
		c := qt.New(t)
		order, err := ResolveOrderWith([]script.Script{
			script.New(1, 8),
			script.New(2, 7),
			script.New(3, 8),
		}, DanglingImplicit)
		c.Assert(err, qt.IsNil)
		c.Assert(order, qt.DeepEquals, []int{8, 7, 1, 3, 2})
	})
	t.Run("self reference is still a cycle", func(t *testing.T) {
		c := qt.New(t)
		for _, p := range []DanglingPolicy{DanglingIgnore, DanglingReject, DanglingImplicit} {
			_, err := ResolveOrderWith([]script.Script{script.New(5, 5)}, p)
			c.Assert(err, qt.ErrorIs, scriptorderapi.ErrCycleDetected, qt.Commentf("policy %s", p))
		}
	})
}

func TestParseDanglingPolicy(t *testing.T) {
	c := qt.New(t)
	for _, p := range []DanglingPolicy{DanglingIgnore, DanglingReject, DanglingImplicit} {
		got, err := ParseDanglingPolicy(p.String())
		c.Assert(err, qt.IsNil)
		c.Assert(got, qt.Equals, p)
	}
	_, err := ParseDanglingPolicy("sometimes")
	c.Assert(scriptorderapi.Code(err), qt.Equals, scriptorderapi.EcodeUsage)
}

func TestResolveOrderIdempotent(t *testing.T) {
	c := qt.New(t)
	scripts := []script.Script{
		script.New(5, 1),
		script.New(1),
		script.New(3, 1),
		script.New(2),
		script.New(4, 2, 3),
	}
	first, err := ResolveOrder(scripts)
	c.Assert(err, qt.IsNil)
	second, err := ResolveOrder(scripts)
	c.Assert(err, qt.IsNil)
	c.Assert(second, qt.DeepEquals, first)
	c.Assert(scripts[4].Dependencies(), qt.DeepEquals, []int{2, 3})
}

// TestResolveOrderRandomDAGs generates DAGs by only letting a script depend on scripts with smaller ids,
// then shuffles the input so that the declaration order tells the resolver nothing.
func TestResolveOrderRandomDAGs(t *testing.T) {
	c := qt.New(t)
	rng := rand.New(rand.NewSource(20240229))
	for round := 0; round < 200; round++ {
		n := rng.Intn(30)
		scripts := make([]script.Script, n)
		for id := 0; id < n; id++ {
			var deps []int
			for d := 0; d < id; d++ {
				if rng.Intn(4) == 0 {
					deps = append(deps, d)
				}
			}
			scripts[id] = script.New(id, deps...)
		}
		rng.Shuffle(n, func(i, j int) { scripts[i], scripts[j] = scripts[j], scripts[i] })

		order, err := ResolveOrder(scripts)
		c.Assert(err, qt.IsNil)
		assertValidOrder(c, scripts, order)

		// Tie the smallest and largest ids to each other.
		if n >= 2 {
			looped := append([]script.Script(nil), scripts...)
			for i, s := range looped {
				if s.ID() == 0 {
					looped[i] = script.New(0, n-1)
				}
				if s.ID() == n-1 {
					looped[i] = script.New(n-1, append(s.Dependencies(), 0)...)
				}
			}
			_, err := ResolveOrder(looped)
			c.Assert(err, qt.ErrorIs, scriptorderapi.ErrCycleDetected)
		}
	}
}
