package manifest

import (
	"fmt"
	"log/slog"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/warptools/scriptorder/pkg/script"
	"github.com/warptools/scriptorder/pkg/scriptorderapi"
)

// ParseStarlark evaluates a starlark manifest and returns the scripts it declares.
// The filename argument is advisory (it shows up in positions and errors); the body is the file content.
//
// A manifest declares scripts by calling the predeclared `script` builtin:
//
//	script(1, depends_on=[2, 3])
//	script(2, depends_on=3)
//	script(3)
//
// Since it's regular starlark, loops and helper functions work too.
// Scripts are returned in the order the calls happened.
// Anything passed to `print` goes to the logger at info level.
//
// Errors:
//
//   - scriptorder-error-manifest-unparsable -- if the body isn't valid starlark syntax, or references undefined names.
//   - scriptorder-error-manifest-eval -- if execution fails, including bad arguments to `script`.
//   - scriptorder-error-manifest-invalid -- if two calls declare the same id.
func ParseStarlark(filename string, body string, logger *slog.Logger) ([]script.Script, error) {
	logger = orDiscard(logger)

	ast, err := syntax.Parse(filename, body, syntax.RetainComments)
	if err != nil {
		return nil, scriptorderapi.ErrorManifestParse(err, filename, "parse")
	}
	traceStatements(logger, ast)

	c := &collector{
		filename: filename,
		seen:     map[int]syntax.Position{},
	}
	predef := starlark.StringDict{
		"script": starlark.NewBuiltin("script", c.call),
	}

	// FileProgram resolves names as part of compiling, so this is where undefined names get caught.
	prog, err := starlark.FileProgram(ast, predef.Has)
	if err != nil {
		return nil, scriptorderapi.ErrorManifestParse(err, filename, "resolve")
	}

	thread := &starlark.Thread{
		Name: "manifest",
		Print: func(thread *starlark.Thread, msg string) {
			logger.Info("manifest print", "file", filename, "msg", msg)
		},
	}
	if _, err := prog.Init(thread, predef); err != nil {
		if c.invalid != nil {
			return nil, c.invalid
		}
		return nil, scriptorderapi.ErrorManifestEval(err, filename)
	}
	logger.Debug("manifest loaded", "file", filename, "scripts", len(c.scripts))
	return c.scripts, nil
}

// collector accumulates the scripts declared by one manifest evaluation.
type collector struct {
	filename string
	scripts  []script.Script
	seen     map[int]syntax.Position

	// Set when a call is rejected for a reason that isn't an evaluation problem,
	// so ParseStarlark can report it with the right code instead of a generic eval error.
	invalid error
}

func (c *collector) call(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var idVal starlark.Value
	var dependsOn starlark.Value = starlark.None
	if err := starlark.UnpackArgs(fn.Name(), args, kwargs, "id", &idVal, "depends_on?", &dependsOn); err != nil {
		return nil, err
	}
	id, err := starlark.AsInt32(idVal)
	if err != nil {
		return nil, fmt.Errorf("%s: for parameter id: %s", fn.Name(), err)
	}
	deps, err := intList(dependsOn)
	if err != nil {
		return nil, fmt.Errorf("%s: for parameter depends_on: %s", fn.Name(), err)
	}

	pos := thread.CallFrame(1).Pos
	if prev, exists := c.seen[id]; exists {
		c.invalid = scriptorderapi.ErrorManifestInvalid(c.filename, pos.String(), fmt.Sprintf("script %d already declared at %s", id, prev))
		return nil, c.invalid
	}
	c.seen[id] = pos
	c.scripts = append(c.scripts, script.New(id, deps...))
	return starlark.None, nil
}

// intList accepts None, a single int, or any iterable of ints.
func intList(v starlark.Value) ([]int, error) {
	switch v := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.Int:
		i, err := starlark.AsInt32(v)
		if err != nil {
			return nil, err
		}
		return []int{i}, nil
	case starlark.Iterable:
		var res []int
		iter := v.Iterate()
		defer iter.Done()
		var x starlark.Value
		for iter.Next(&x) {
			i, err := starlark.AsInt32(x)
			if err != nil {
				return nil, fmt.Errorf("got %s in list, want int", x.Type())
			}
			res = append(res, i)
		}
		return res, nil
	default:
		return nil, fmt.Errorf("got %s, want int or list of int", v.Type())
	}
}
