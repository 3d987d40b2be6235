package mainlib

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	cli "github.com/jawher/mow.cli"
	"gopkg.in/yaml.v3"

	"github.com/warptools/scriptorder/pkg/manifest"
	"github.com/warptools/scriptorder/pkg/resolve"
	"github.com/warptools/scriptorder/pkg/script"
	"github.com/warptools/scriptorder/pkg/scriptorderapi"
)

const (
	exitOK               = 0
	exitFailure          = 1
	exitUsage            = 2
	exitCycle            = 10
	exitInvalidReference = 11
	exitManifest         = 12
	exitIO               = 13
)

// Main runs the complete program exactly as if invoked from the command line.
// args[0] is the program name, as with os.Args.
func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) (exitcode int) {
	app := cli.App("scriptorder", "Put scripts in an order that respects their dependencies.")
	app.ErrorHandling = flag.ContinueOnError

	verbose := app.Bool(cli.BoolOpt{
		Name:   "v verbose",
		Desc:   "Log what's going on to stderr",
		EnvVar: "SCRIPTORDER_VERBOSE",
	})
	var logger *slog.Logger
	app.Before = func() {
		logger = newLogger(stderr, *verbose)
	}

	app.Command("demo", "Resolve a fixed set of four sample scripts and print the result", func(cmd *cli.Cmd) {
		withCycle := cmd.Bool(cli.BoolOpt{
			Name: "with-cycle",
			Desc: "Make script 3 depend on script 4, which closes a loop",
		})
		cmd.Action = func() {
			exitcode = runDemo(stdout, stderr, logger, *withCycle)
		}
	})

	app.Command("order", "Print the order the scripts in a manifest should run in", func(cmd *cli.Cmd) {
		cmd.Spec = "[OPTIONS] FILE"
		dangling := danglingOpt(cmd)
		format := cmd.String(cli.StringOpt{
			Name:   "f format",
			Value:  "text",
			Desc:   "Output format: text (one id per line), json, or yaml",
			EnvVar: "SCRIPTORDER_FORMAT",
		})
		file := manifestArg(cmd)
		cmd.Action = func() {
			exitcode = runOrder(stdout, stderr, logger, *file, *dangling, *format)
		}
	})

	app.Command("cycles", "List the groups of scripts in a manifest that depend on each other in a loop", func(cmd *cli.Cmd) {
		cmd.Spec = "[OPTIONS] FILE"
		dangling := danglingOpt(cmd)
		file := manifestArg(cmd)
		cmd.Action = func() {
			exitcode = runCycles(stdout, stderr, logger, *file, *dangling)
		}
	})

	app.Command("graph", "Print the dependency graph of a manifest in graphviz dot format", func(cmd *cli.Cmd) {
		cmd.Spec = "[OPTIONS] FILE"
		dangling := danglingOpt(cmd)
		file := manifestArg(cmd)
		cmd.Action = func() {
			exitcode = runGraph(stdout, stderr, logger, *file, *dangling)
		}
	})

	if err := app.Run(args); err != nil {
		return exitUsage
	}
	return exitcode
}

func danglingOpt(cmd *cli.Cmd) *string {
	return cmd.String(cli.StringOpt{
		Name:   "dangling",
		Value:  resolve.DanglingIgnore.String(),
		Desc:   "What to do with dependencies on ids no script has: ignore, reject, or implicit",
		EnvVar: "SCRIPTORDER_DANGLING",
	})
}

func manifestArg(cmd *cli.Cmd) *string {
	return cmd.String(cli.StringArg{
		Name: "FILE",
		Desc: "Manifest to read (.star, .yaml, .yml, or .json)",
	})
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Keep output stable enough to diff.
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// demoScripts is the sample set the demo command resolves.
func demoScripts(withCycle bool) []script.Script {
	three := script.New(3)
	if withCycle {
		three = script.New(3, 4)
	}
	return []script.Script{
		script.New(1, 2, 3),
		script.New(2, 3),
		three,
		script.New(4, 1, 2),
	}
}

// runDemo reports a failed resolution but doesn't fail itself:
// a cycle in the sample is a result worth printing, not a crash.
func runDemo(stdout, stderr io.Writer, logger *slog.Logger, withCycle bool) int {
	scripts := demoScripts(withCycle)
	for _, s := range scripts {
		logger.Debug("demo script", "script", s.String())
	}
	order, err := resolve.ResolveOrder(scripts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitOK
	}
	fmt.Fprintf(stdout, "Valid script execution order: %v\n", order)
	return exitOK
}

// loadAndPolicy does the common prologue of the manifest commands.
// On failure the message has already been reported and the exit code is returned.
func loadAndPolicy(stderr io.Writer, logger *slog.Logger, file string, dangling string) ([]script.Script, resolve.DanglingPolicy, int) {
	policy, err := resolve.ParseDanglingPolicy(dangling)
	if err != nil {
		return nil, policy, report(stderr, err)
	}
	scripts, err := manifest.Load(file, logger)
	if err != nil {
		return nil, policy, report(stderr, err)
	}
	logger.Debug("manifest read", "file", file, "scripts", len(scripts), "dangling", policy.String())
	return scripts, policy, exitOK
}

func runOrder(stdout, stderr io.Writer, logger *slog.Logger, file string, dangling string, format string) int {
	switch format {
	case "text", "json", "yaml":
	default:
		return report(stderr, scriptorderapi.ErrorUsage("unknown format %q (expected text, json, or yaml)", format))
	}
	scripts, policy, code := loadAndPolicy(stderr, logger, file, dangling)
	if code != exitOK {
		return code
	}
	order, err := resolve.ResolveOrderWith(scripts, policy)
	if err != nil {
		return report(stderr, err)
	}
	if err := writeOrder(stdout, order, format); err != nil {
		return report(stderr, err)
	}
	return exitOK
}

func writeOrder(w io.Writer, order []int, format string) error {
	var out []byte
	switch format {
	case "json":
		bs, err := json.Marshal(order)
		if err != nil {
			return scriptorderapi.ErrorIO(err, "encoding json")
		}
		out = append(bs, '\n')
	case "yaml":
		bs, err := yaml.Marshal(order)
		if err != nil {
			return scriptorderapi.ErrorIO(err, "encoding yaml")
		}
		out = bs
	default:
		var sb strings.Builder
		for _, id := range order {
			sb.WriteString(strconv.Itoa(id))
			sb.WriteByte('\n')
		}
		out = []byte(sb.String())
	}
	if _, err := w.Write(out); err != nil {
		return scriptorderapi.ErrorIO(err, "writing output")
	}
	return nil
}

func runCycles(stdout, stderr io.Writer, logger *slog.Logger, file string, dangling string) int {
	scripts, policy, code := loadAndPolicy(stderr, logger, file, dangling)
	if code != exitOK {
		return code
	}
	cycles, err := resolve.Cycles(scripts, policy)
	if err != nil {
		return report(stderr, err)
	}
	if len(cycles) == 0 {
		fmt.Fprintln(stdout, "no cycles")
		return exitOK
	}
	for _, cycle := range cycles {
		ids := make([]string, len(cycle))
		for i, id := range cycle {
			ids[i] = strconv.Itoa(id)
		}
		fmt.Fprintf(stdout, "cycle: %s\n", strings.Join(ids, " "))
	}
	return exitCycle
}

func runGraph(stdout, stderr io.Writer, logger *slog.Logger, file string, dangling string) int {
	scripts, policy, code := loadAndPolicy(stderr, logger, file, dangling)
	if code != exitOK {
		return code
	}
	if err := resolve.WriteDOT(stdout, scripts, policy); err != nil {
		return report(stderr, err)
	}
	return exitOK
}

// report prints the error and picks the exit code for it.
func report(stderr io.Writer, err error) int {
	fmt.Fprintln(stderr, err)
	switch scriptorderapi.Code(err) {
	case scriptorderapi.EcodeCycleDetected:
		return exitCycle
	case scriptorderapi.EcodeInvalidReference:
		return exitInvalidReference
	case scriptorderapi.EcodeManifestUnparsable, scriptorderapi.EcodeManifestInvalid, scriptorderapi.EcodeManifestEval:
		return exitManifest
	case scriptorderapi.EcodeIO:
		return exitIO
	case scriptorderapi.EcodeUsage:
		return exitUsage
	default:
		return exitFailure
	}
}
