package main

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zephyrtronium/bitcalc"
)

// version is set at link time.
var version = "(devel)"

// app is the state shared by the subcommands of one invocation.
type app struct {
	conf *viper.Viper
	log  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{conf: viper.New(), log: zap.NewNop()}
	root := &cobra.Command{
		Use:   "bitcalc",
		Short: "Calculator for binary number arithmetic",
		Long: `bitcalc evaluates programs of binary arithmetic such as

	x = 1.1; x * 10; '''comments are triple-quoted''' (x - 1) / 100;

Every statement ends with a semicolon and prints its value. Whitespace is
ignored everywhere, including inside numbers and variable names.

Flags may also be set in a configuration file or with BITCALC_ environment
variables, e.g. BITCALC_BACKEND=float64 or BITCALC_MAX_DEPTH=64.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	f := root.PersistentFlags()
	f.String("config", "",
		"Configuration file (YAML, TOML, or JSON). Environment variables and flags override it.")
	f.String("backend", "rat", "Arithmetic backend, one of [rat, big, float64]")
	f.Uint("prec", bitcalc.DefaultPrec, "Precision in bits of the rat and big backends")
	f.Bool("strict", false, "Fail when input remains after the last complete statement")
	f.Int("max-depth", bitcalc.DefaultMaxDepth, "Maximum nesting depth of expressions")
	f.StringArray("given", nil, "name=literal variable definition (any number of times)")
	f.BoolP("verbose", "v", false, "Log debugging details to stderr")

	root.AddCommand(a.evalCmd(), a.treeCmd(), a.replCmd(), versionCmd())
	return root
}

// init loads the configuration for the command being run and creates the
// logger.
func (a *app) init(cmd *cobra.Command) error {
	a.conf = viper.New()
	if err := a.conf.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "binding flags")
	}
	a.conf.SetEnvPrefix("BITCALC")
	a.conf.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.conf.AutomaticEnv()
	if cfg := a.conf.GetString("config"); cfg != "" {
		a.conf.SetConfigFile(cfg)
		if err := a.conf.ReadInConfig(); err != nil {
			return errors.Wrapf(err, "reading config %s", cfg)
		}
	}
	a.log = newLogger(cmd.ErrOrStderr(), a.conf.GetBool("verbose"))
	a.log.Debug("configured", zap.String("command", cmd.Name()), zap.String("config", a.conf.ConfigFileUsed()))
	return nil
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zap.WarnLevel
	if verbose {
		level = zap.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}

// settings are the library options derived from the configuration.
type settings struct {
	backend bitcalc.Backend
	parse   []bitcalc.ParseOption
	ctx     []bitcalc.ContextOption
}

func (a *app) settings() (*settings, error) {
	b, err := bitcalc.ParseBackend(a.conf.GetString("backend"), a.conf.GetUint("prec"))
	if err != nil {
		return nil, errors.Wrap(err, "configuring backend")
	}
	depth := a.conf.GetInt("max-depth")
	if depth <= 0 {
		return nil, errors.Errorf("max-depth must be positive, not %d", depth)
	}
	s := settings{
		backend: b,
		parse:   []bitcalc.ParseOption{bitcalc.MaxDepth(depth)},
		ctx:     []bitcalc.ContextOption{bitcalc.WithBackend(b)},
	}
	if a.conf.GetBool("strict") {
		s.parse = append(s.parse, bitcalc.Strict())
	}
	for _, def := range a.conf.GetStringSlice("given") {
		opt, err := given(def)
		if err != nil {
			return nil, err
		}
		s.ctx = append(s.ctx, opt)
	}
	a.log.Debug("settings",
		zap.String("backend", b.Name()),
		zap.Uint("prec", a.conf.GetUint("prec")),
		zap.Int("max-depth", depth),
		zap.Int("given", len(s.ctx)-1),
	)
	return &s, nil
}

// given parses a variable definition of the form name=literal.
func given(def string) (bitcalc.ContextOption, error) {
	name, lit, ok := strings.Cut(def, "=")
	if !ok {
		return nil, errors.Errorf(`variable definitions must be "name=literal", not %q`, def)
	}
	name = bitcalc.Clean(name).String()
	if strings.ContainsAny(name, bitcalc.Reserved) {
		return nil, errors.Errorf("variable name %q contains a reserved character", name)
	}
	n, err := bitcalc.ParseNum(lit)
	if err != nil {
		return nil, errors.Wrapf(err, "defining %s", name)
	}
	return bitcalc.SetVar(name, n), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bitcalc version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bitcalc %s %s\n", version, runtime.Version())
		},
	}
}
