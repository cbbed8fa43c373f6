// Command psysim runs an adaptive procedure against a simulated listener and
// prints the resulting estimate.
//
// Usage:
//
//	psysim [flags]
//
// Without --config it runs the built-in 2AFC PSI procedure.
//
// Examples:
//
//	psysim --kind staircase --trace
//	psysim --config session.yaml --alpha 12 --beta 1.5
//	psysim --config psi.yaml --state-dir ./state --label left-ear
//	psysim --list
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/cwbudde/algo-vecmath/cpu"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cwbudde/algo-psych/adaptive/procedure"
	"github.com/cwbudde/algo-psych/adaptive/psi"
	"github.com/cwbudde/algo-psych/psychometric"
)

// defaultTrials bounds psi and maxlik runs started without a config file.
const defaultTrials = 100

type options struct {
	config   string
	kind     string
	label    string
	stateDir string
	trials   int

	seed     int64
	family   string
	listener psychometric.Params

	trace   bool
	list    bool
	verbose bool
	quiet   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newFlagSet(stderr io.Writer, o *options) *flag.FlagSet {
	fs := flag.NewFlagSet("psysim", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVarP(&o.config, "config", "c", "", "YAML procedure configuration")
	fs.StringVar(&o.kind, "kind", "", "override the procedure kind")
	fs.StringVar(&o.label, "label", "", "override the condition label (default: the kind)")
	fs.StringVar(&o.stateDir, "state-dir", "", "save and resume PSI posteriors in this directory")
	fs.IntVarP(&o.trials, "trials", "n", -1, "override the trial budget, 0 for none (default 100 for psi and maxlik without --config)")

	fs.Int64Var(&o.seed, "seed", 1, "random seed of the simulated listener")
	fs.StringVar(&o.family, "family", "logistic", "psychometric family of the listener")
	fs.Float64Var(&o.listener.Alpha, "alpha", 0, "listener threshold")
	fs.Float64Var(&o.listener.Beta, "beta", 2, "listener slope")
	fs.Float64Var(&o.listener.Gamma, "gamma", 0.5, "listener guess rate")
	fs.Float64Var(&o.listener.Lambda, "lambda", 0.02, "listener lapse rate")

	fs.BoolVar(&o.trace, "trace", false, "print every trial")
	fs.BoolVar(&o.list, "list", false, "list procedure kinds and exit")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")
	fs.BoolVarP(&o.quiet, "quiet", "q", false, "disable logging")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: psysim [flags]\n\n")
		fmt.Fprintf(stderr, "Runs an adaptive procedure against a simulated listener.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	return fs
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var o options

	fs := newFlagSet(stderr, &o)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	reg := procedure.DefaultRegistry()
	if o.list {
		for _, k := range reg.Kinds() {
			fmt.Fprintln(stdout, k)
		}

		return nil
	}

	log := newLogger(stderr, o.verbose, o.quiet)
	defer func() { _ = log.Sync() }()

	logCPU(log)

	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}

	family, err := psychometric.ParseFamily(o.family)
	if err != nil {
		return err
	}

	if err := o.listener.Validate(); err != nil {
		return fmt.Errorf("listener: %w", err)
	}

	var (
		env   procedure.Env
		store *psi.DirStore
		opts  = []procedure.SessionOption{procedure.WithLogger(log)}
	)

	if o.stateDir != "" {
		store, err = psi.NewDirStore(o.stateDir)
		if err != nil {
			return err
		}

		env.Store = store
		opts = append(opts, procedure.WithStore(store, cfg.Label))
	}

	p, err := reg.New(cfg, env)
	if err != nil {
		return err
	}

	obs := psychometric.NewObserver(o.listener, family, rand.New(rand.NewSource(o.seed)))
	respond := procedure.ResponderFunc(func(_ context.Context, x float64) (psychometric.Response, error) {
		return obs.Respond(x), nil
	})

	res, runErr := procedure.NewSession(p, opts...).Run(ctx, respond)

	if o.trace {
		if err := printTrials(stdout, res.Trials); err != nil {
			return err
		}
	}

	if err := printResult(stdout, res, o.listener); err != nil {
		return err
	}

	if res.Saved {
		fmt.Fprintf(stdout, "posterior saved to %s\n", store.Path(cfg.Label))
	}

	return runErr
}

func loadConfig(o options) (procedure.Config, error) {
	cfg := procedure.DefaultConfig()

	if o.config != "" {
		var err error
		if cfg, err = procedure.Load(o.config); err != nil {
			return procedure.Config{}, err
		}
	}

	if o.kind != "" {
		cfg.Kind = o.kind
	}

	switch {
	case o.trials >= 0:
		cfg.MaxTrials = o.trials
	case o.config == "" && cfg.NeedsBudget():
		cfg.MaxTrials = defaultTrials
	}

	if o.label != "" {
		cfg.Label = o.label
	}

	if cfg.Label == "" {
		cfg.Label = cfg.Kind
	}

	return cfg, nil
}

func newLogger(w io.Writer, verbose, quiet bool) *zap.Logger {
	if quiet {
		return zap.NewNop()
	}

	level := zapcore.InfoLevel
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())

	if verbose {
		level = zapcore.DebugLevel
		enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level))
}

func logCPU(log *zap.Logger) {
	f := cpu.DetectFeatures()

	log.Debug("cpu features",
		zap.String("arch", f.Architecture),
		zap.Bool("sse2", f.HasSSE2),
		zap.Bool("avx2", f.HasAVX2),
		zap.Bool("neon", f.HasNEON))
}

func printTrials(w io.Writer, trials []procedure.TrialRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Trial\tTrack\tStimulus\tResponse\tNext\n")
	fmt.Fprintf(tw, "-----\t-----\t--------\t--------\t----\n")

	for _, t := range trials {
		fmt.Fprintf(tw, "%d\t%d\t%.4g\t%s\t%.4g\n", t.N, t.Track, t.Stimulus, t.Response, t.Next)
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write trials: %w", err)
	}

	return nil
}

func printResult(w io.Writer, res procedure.Result, truth psychometric.Params) error {
	est := res.Estimate

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "kind\t%s\n", est.Kind)
	fmt.Fprintf(tw, "trials\t%d (%d this session)\n", est.Trials, len(res.Trials))
	fmt.Fprintf(tw, "threshold\t%s\t(listener %.4g)\n", number(est.Threshold), truth.Alpha)

	if !math.IsNaN(est.SD) {
		fmt.Fprintf(tw, "sd\t%.4g\n", est.SD)
	}

	if !math.IsNaN(est.PercentCorrect) {
		fmt.Fprintf(tw, "percent correct at limit\t%.4g\n", est.PercentCorrect)
	}

	if p := est.Params; p != nil {
		fmt.Fprintf(tw, "slope\t%.4g\t(listener %.4g)\n", p.Beta, truth.Beta)
		fmt.Fprintf(tw, "guess rate\t%.4g\t(listener %.4g)\n", p.Gamma, truth.Gamma)
		fmt.Fprintf(tw, "lapse rate\t%.4g\t(listener %.4g)\n", p.Lambda, truth.Lambda)
	}

	for i, s := range est.Tracks {
		switch {
		case i < len(est.TrackPercentCorrect) && !math.IsNaN(est.TrackPercentCorrect[i]):
			fmt.Fprintf(tw, "track %d\t%.4g%% correct at limit\n", i, est.TrackPercentCorrect[i])
		case s.Available():
			fmt.Fprintf(tw, "track %d\t%.4g\tsd %.4g over %d turnpoints\n", i, s.Mean, s.SD, s.N)
		default:
			fmt.Fprintf(tw, "track %d\t-\n", i)
		}
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return nil
}

func number(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}

	return fmt.Sprintf("%.4g", v)
}
