// avmplay runs a raw VM1 action blob against an empty stage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/tliron/commonlog"

	"github.com/chazu/avm/config"
	"github.com/chazu/avm/player"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	configDir := flag.String("config", ".", "Directory to search upward for avm.toml")
	frames := flag.Uint64("frames", 1, "Frames to play after the actions run (0 plays until interrupted)")
	verbosity := flag.Int("v", -1, "Log verbosity (overrides [log] verbosity)")
	swfVersion := flag.Uint("swf-version", 0, "SWF version of the actions (overrides [player] swf_version)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: avmplay [options] <actions.bin | ->\n\n")
		fmt.Fprintf(os.Stderr, "Runs a raw action blob on the root of an empty movie and plays frames.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.FindAndLoad(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if *verbosity >= 0 {
		cfg.Log.Verbosity = *verbosity
	}
	if *swfVersion > 0 {
		cfg.Player.SwfVersion = uint8(*swfVersion)
	}

	var logPath *string
	if cfg.Log.File != "" {
		logPath = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity, logPath)

	code, err := readInput(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading actions: %v\n", err)
		os.Exit(1)
	}

	p, err := player.New(cfg, player.WithTraceOutput(func(msg string) { fmt.Println(msg) }))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := player.NewWorker(p)
	err = w.Do(func(p *player.Player) error {
		p.RunActions(code)
		return nil
	})
	if err == nil && !p.Halted() {
		err = w.Play(ctx, *frames)
	}
	w.Stop()
	if cerr := p.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", cerr)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if p.Halted() {
		os.Exit(3)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
