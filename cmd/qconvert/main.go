package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/qconvert/pkg/builtin"
	"github.com/ritzau/qconvert/pkg/config"
	"github.com/ritzau/qconvert/pkg/conversion"
	"github.com/ritzau/qconvert/pkg/cycles"
	"github.com/ritzau/qconvert/pkg/logging"
	"github.com/ritzau/qconvert/pkg/model"
	"github.com/ritzau/qconvert/pkg/output"
	"github.com/ritzau/qconvert/pkg/policy"
	"github.com/ritzau/qconvert/pkg/scheme"
	"github.com/ritzau/qconvert/pkg/transpiler"
	"github.com/ritzau/qconvert/pkg/watcher"
	"github.com/ritzau/qconvert/pkg/web"
)

const usage = `Usage: qconvert [flags] <command>

Commands:
  graph                    show the conversion graph
  path FROM TO             show the conversion path between two aliases
  transpile TARGET [FILE]  convert an OpenQASM program (stdin when FILE is omitted)
  serve                    start the inspection server

Flags:
`

// errUsage marks command line mistakes (exit code 2).
var errUsage = errors.New("usage error")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func newFlagSet(stderr io.Writer) *pflag.FlagSet {
	f := pflag.NewFlagSet("qconvert", pflag.ContinueOnError)
	f.SetOutput(stderr)
	f.Int("depth", -1, "Maximum number of conversions in a path (-1 for unbounded)")
	f.String("policy", "", "TOML conversion policy applied to the built-in graph")
	f.Int("port", 8080, "Port for the inspection server")
	f.Bool("watch", false, "Reload the policy file when it changes (serve only)")
	f.Bool("dot", false, "Print the graph in Graphviz DOT format (graph only)")
	f.Bool("json", false, "Print JSON instead of text")
	f.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	f.Usage = func() {
		fmt.Fprint(stderr, usage)
		f.PrintDefaults()
	}
	return f
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	f := newFlagSet(stderr)
	if err := f.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(f)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	logging.Configure(stderr, level, false)

	app := &app{cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr}
	if err := app.dispatch(ctx, f.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "Error: %v\n\n", err)
			f.Usage()
			return 2
		}
		output.PrintError(stderr, err)
		return 1
	}
	return 0
}

type app struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}

	command, rest := args[0], args[1:]
	switch command {
	case "graph":
		return a.graph(rest)
	case "path":
		return a.path(rest)
	case "transpile":
		return a.transpile(rest)
	case "serve":
		return a.serve(ctx, rest)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

// scheme builds the conversion scheme: the built-in graph, the policy file
// when one is configured, and the depth flag, which wins over the policy.
func (a *app) scheme() (*scheme.Scheme, error) {
	s := scheme.New(scheme.WithGraph(builtin.NewGraph()), scheme.WithMaxPathDepth(a.cfg.Depth))

	if a.cfg.Policy != "" {
		p, err := policy.Load(a.cfg.Policy)
		if err != nil {
			return nil, err
		}
		if err := p.ApplyScheme(s); err != nil {
			return nil, fmt.Errorf("failed to apply policy %s: %w", a.cfg.Policy, err)
		}
	}

	if a.cfg.Depth >= 0 {
		if err := s.UpdateValues(map[string]any{scheme.KeyMaxPathDepth: a.cfg.Depth}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (a *app) graph(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: graph takes no arguments", errUsage)
	}
	s, err := a.scheme()
	if err != nil {
		return err
	}
	g := s.Graph()

	switch {
	case a.cfg.DOT:
		data, err := g.DOT("conversions")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.stdout, string(data))
		return err
	case a.cfg.JSON:
		return a.writeJSON(model.FromConversionGraph(g, builtin.NewRegistry()))
	}

	trips := model.NewRoundTrips(cycles.FindRoundTrips(g))
	output.PrintGraph(a.stdout, model.FromConversionGraph(g, builtin.NewRegistry()), trips)
	return nil
}

func (a *app) path(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: path needs FROM and TO", errUsage)
	}
	source, target := conversion.Alias(args[0]), conversion.Alias(args[1])

	s, err := a.scheme()
	if err != nil {
		return err
	}
	p, err := s.Graph().FindPath(source, target, s.MaxPathDepth())
	if err != nil {
		return err
	}

	result := model.NewPath(source, target, s.MaxPathDepth(), p)
	if a.cfg.JSON {
		return a.writeJSON(result)
	}
	output.PrintPath(a.stdout, result)
	return nil
}

func (a *app) transpile(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: transpile needs TARGET and an optional FILE", errUsage)
	}
	target := conversion.Alias(args[0])

	var (
		text []byte
		err  error
	)
	if len(args) == 2 && args[1] != "-" {
		text, err = os.ReadFile(args[1])
	} else {
		text, err = io.ReadAll(a.stdin)
	}
	if err != nil {
		return fmt.Errorf("failed to read program: %w", err)
	}

	s, err := a.scheme()
	if err != nil {
		return err
	}

	t := transpiler.New(builtin.NewRegistry(), s.Graph())
	result, err := t.Transpile(string(text), target, transpiler.WithScheme(s))
	if err != nil {
		return err
	}

	switch v := result.(type) {
	case string:
		_, err = io.WriteString(a.stdout, v)
	default:
		if text, ok := asText(result); ok && !a.cfg.JSON {
			_, err = io.WriteString(a.stdout, text)
		} else {
			err = a.writeJSON(result)
		}
	}
	return err
}

// asText returns the program as text when its representation is a string
// type such as qasm.QASM2.
func asText(program any) (string, bool) {
	data, err := json.Marshal(program)
	if err != nil || len(data) == 0 || data[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	return s, true
}

func (a *app) serve(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("%w: serve takes no arguments", errUsage)
	}
	server, err := a.newServer()
	if err != nil {
		return err
	}

	if a.cfg.Watch {
		if a.cfg.Policy == "" {
			return fmt.Errorf("%w: --watch needs --policy", errUsage)
		}
		if err := a.watchPolicy(ctx, server); err != nil {
			return err
		}
	}

	return server.Start(ctx, a.cfg.Port)
}

// newServer serves the configured scheme, so requests without ?depth get
// the same bound as the other commands.
func (a *app) newServer() (*web.Server, error) {
	s, err := a.scheme()
	if err != nil {
		return nil, err
	}

	server := web.NewServer(transpiler.New(builtin.NewRegistry(), s.Graph()), s)
	if a.cfg.Policy != "" {
		if err := server.SetScheme(s, a.cfg.Policy); err != nil {
			return nil, err
		}
	}
	return server, nil
}

// watchPolicy reapplies the policy to a fresh built-in graph whenever the
// file settles after a change. A broken policy keeps the current graph.
func (a *app) watchPolicy(ctx context.Context, server *web.Server) error {
	fw, err := watcher.NewFileWatcher(a.cfg.Policy)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 200*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			if !event.NeedsReload() {
				logging.Warn("policy file removed, keeping current graph", "path", fw.Path())
				continue
			}
			a.reloadPolicy(server)
		}
	}()
	return nil
}

// reloadPolicy rebuilds the scheme, depth bound included, and serves it.
func (a *app) reloadPolicy(server *web.Server) {
	s, err := a.scheme()
	if err != nil {
		logging.Error("failed to reload policy", "path", a.cfg.Policy, "error", err)
		if err := server.PublishPolicyError(a.cfg.Policy, err); err != nil {
			logging.Warn("failed to publish policy error", "error", err)
		}
		return
	}
	if err := server.SetScheme(s, a.cfg.Policy); err != nil {
		logging.Warn("failed to publish graph update", "error", err)
	}
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
