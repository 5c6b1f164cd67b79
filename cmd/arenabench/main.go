// arenabench replays allocation workloads on an arena and reports what the
// arena did with them.
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	arena "github.com/pavanmanishd/regionarena"
	"github.com/pavanmanishd/regionarena/internal/workload"
)

var (
	backendFlag = &cli.StringFlag{
		Name:  "backend",
		Usage: `Chunk memory backend ("heap" or "vm")`,
	}
	maxChunkSizeFlag = &cli.IntFlag{
		Name:  "max-chunk-size",
		Usage: "Payload size of ordinary chunks in bytes",
	}
	alignmentFlag = &cli.IntFlag{
		Name:  "alignment",
		Usage: "Alignment of small allocations (power of two, at most 64)",
	}
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML file with arena settings",
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Log level (panic, fatal, error, warn, info, debug, trace)",
		Value: "info",
	}
	workloadFlag = &cli.StringFlag{
		Name:    "workload",
		Aliases: []string{"w"},
		Usage:   "TOML workload file (built-in default workload when omitted)",
	}
)

var app = &cli.App{
	Name:  "arenabench",
	Usage: "exercise the region allocator with synthetic workloads",
	Flags: []cli.Flag{
		backendFlag,
		maxChunkSizeFlag,
		alignmentFlag,
		configFlag,
		verbosityFlag,
	},
	Before: func(ctx *cli.Context) error {
		lvl, err := logrus.ParseLevel(ctx.String(verbosityFlag.Name))
		if err != nil {
			return err
		}
		logrus.SetLevel(lvl)
		return nil
	},
	Commands: []*cli.Command{
		{
			Name:   "run",
			Usage:  "Replay a workload and print arena statistics",
			Flags:  []cli.Flag{workloadFlag},
			Action: runWorkload,
		},
		{
			Name:   "scenario",
			Usage:  "Run the reference alloc/resize/reset scenario",
			Action: runScenario,
		},
		{
			Name:   "dumpconfig",
			Usage:  "Print the effective arena configuration as TOML",
			Flags:  []cli.Flag{workloadFlag},
			Action: dumpConfig,
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// arenaConfig layers the settings: defaults, the workload's [arena] table,
// the --config file, then individual flags.
func arenaConfig(ctx *cli.Context, base arena.Config) (arena.Config, error) {
	cfg := arena.DefaultConfig()
	overlay(&cfg, base)
	if path := ctx.String(configFlag.Name); path != "" {
		var file arena.Config
		if _, err := toml.DecodeFile(path, &file); err != nil {
			return cfg, errors.Wrapf(err, "load config %s", path)
		}
		overlay(&cfg, file)
	}
	if ctx.IsSet(backendFlag.Name) {
		cfg.Backend = ctx.String(backendFlag.Name)
	}
	if ctx.IsSet(maxChunkSizeFlag.Name) {
		cfg.MaxChunkSize = ctx.Int(maxChunkSizeFlag.Name)
	}
	if ctx.IsSet(alignmentFlag.Name) {
		cfg.Alignment = ctx.Int(alignmentFlag.Name)
	}
	return cfg, nil
}

func overlay(dst *arena.Config, src arena.Config) {
	if src.MaxChunkSize != 0 {
		dst.MaxChunkSize = src.MaxChunkSize
	}
	if src.Alignment != 0 {
		dst.Alignment = src.Alignment
	}
	if src.Backend != "" {
		dst.Backend = src.Backend
	}
}

func loadWorkload(ctx *cli.Context) (workload.Workload, error) {
	if path := ctx.String(workloadFlag.Name); path != "" {
		return workload.Load(path)
	}
	return workload.Default(), nil
}

func newArena(cfg arena.Config) (*arena.Arena, error) {
	return arena.New(arena.WithConfig(cfg), arena.WithLogger(logrus.StandardLogger()))
}

func runWorkload(ctx *cli.Context) error {
	w, err := loadWorkload(ctx)
	if err != nil {
		return err
	}
	cfg, err := arenaConfig(ctx, w.Arena)
	if err != nil {
		return err
	}
	a, err := newArena(cfg)
	if err != nil {
		return err
	}
	res, err := workload.Run(a, w)
	if derr := a.Destroy(); err == nil {
		err = derr
	}
	if err != nil {
		return err
	}
	printResult(os.Stdout, w, cfg, res)
	return nil
}

func runScenario(ctx *cli.Context) error {
	cfg, err := arenaConfig(ctx, arena.Config{MaxChunkSize: workload.ScenarioChunkSize})
	if err != nil {
		return err
	}
	a, err := newArena(cfg)
	if err != nil {
		return err
	}
	tr, err := workload.Scenario(a)
	if derr := a.Destroy(); err == nil {
		err = derr
	}
	if err != nil {
		return err
	}
	printTrace(os.Stdout, cfg, tr)
	return nil
}

func dumpConfig(ctx *cli.Context) error {
	w, err := loadWorkload(ctx)
	if err != nil {
		return err
	}
	cfg, err := arenaConfig(ctx, w.Arena)
	if err != nil {
		return err
	}
	return toml.NewEncoder(os.Stdout).Encode(cfg)
}
