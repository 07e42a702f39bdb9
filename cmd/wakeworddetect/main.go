// wakeworddetect reads 16 kHz mono s16 PCM from stdin (or a WAV file, or
// a live microphone) and prints the name of each wake word detected,
// one per line, to stdout.
//
// Usage:
//
//	wakeworddetect [options]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/rhasspy/oww-go/internal/config"
	"github.com/rhasspy/oww-go/internal/logger"
	"github.com/rhasspy/oww-go/internal/onnxmodel"
	"github.com/rhasspy/oww-go/internal/pipeline"
	"github.com/rhasspy/oww-go/internal/source"
)

func main() {
	config.LoadEnv()

	cfg, err := parseArgs(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR]", err)
		os.Exit(1)
	}

	logLevel := logger.LevelNormal
	if cfg.Verbose {
		logLevel = logger.LevelVerbose
	}
	if cfg.Quiet {
		logLevel = logger.LevelOff
	}

	var logOut io.Writer = os.Stderr
	if cfg.LogFile != "" && cfg.LogFile != "stderr" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open log file %s: %v (falling back to stderr)\n", cfg.LogFile, err)
		} else {
			logOut = f
			defer f.Close()
		}
	}
	log := logger.New(logLevel, logOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	runtime := onnxmodel.NewRuntime(cfg.OnnxLibraryPath)
	defer runtime.Close()

	src, closeSrc, err := openSource(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "[ERROR]", err)
		os.Exit(1)
	}
	if closeSrc != nil {
		defer closeSrc()
	}

	out := pipeline.NewOutput(os.Stdout, os.Stderr, cfg.Settings.Debug)

	if err := pipeline.Run(ctx, cfg.Settings, runtime, src, out, log); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}

func openSource(cfg config.Config) (pipeline.Source, func() error, error) {
	if cfg.Mic {
		mic, err := source.OpenMicrophone()
		if err != nil {
			return nil, nil, fmt.Errorf("open microphone: %w", err)
		}
		return mic, mic.Close, nil
	}
	if cfg.InputPath != "" {
		f, err := os.Open(cfg.InputPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open input file: %w", err)
		}
		switch filepath.Ext(cfg.InputPath) {
		case ".wav", ".WAV":
			wav, err := source.OpenWAVFile(f)
			if err != nil {
				f.Close()
				return nil, nil, fmt.Errorf("open wav file: %w", err)
			}
			return wav, f.Close, nil
		default:
			return source.NewStdin(f), f.Close, nil
		}
	}
	return source.NewStdin(os.Stdin), nil, nil
}

// parseArgs hand-parses the flag table below. A flag missing its
// required argument prints usage and exits 0, matching the original
// C++ implementation's ensureArg/printUsage behavior exactly; this is
// why the stdlib flag package and third-party CLI libraries are not
// used here (see DESIGN.md).
func parseArgs(argv []string) (config.Config, error) {
	cfg := config.Default()

	ensureArg := func(i int) {
		if i+1 >= len(argv) {
			printUsage(argv)
			os.Exit(0)
		}
	}

	for i := 1; i < len(argv); i++ {
		switch argv[i] {
		case "-m", "--model":
			ensureArg(i)
			i++
			cfg.Settings.WakeWordModelPaths = append(cfg.Settings.WakeWordModelPaths, argv[i])
		case "-t", "--threshold":
			ensureArg(i)
			i++
			v, err := strconv.ParseFloat(argv[i], 64)
			if err != nil {
				return cfg, fmt.Errorf("invalid --threshold %q: %w", argv[i], err)
			}
			cfg.Settings.Threshold = v
		case "-l", "--trigger-level":
			ensureArg(i)
			i++
			v, err := strconv.Atoi(argv[i])
			if err != nil {
				return cfg, fmt.Errorf("invalid --trigger-level %q: %w", argv[i], err)
			}
			cfg.Settings.TriggerLevel = v
		case "-r", "--refractory":
			ensureArg(i)
			i++
			v, err := strconv.Atoi(argv[i])
			if err != nil {
				return cfg, fmt.Errorf("invalid --refractory %q: %w", argv[i], err)
			}
			cfg.Settings.Refractory = v
		case "--step-frames":
			ensureArg(i)
			i++
			v, err := strconv.Atoi(argv[i])
			if err != nil {
				return cfg, fmt.Errorf("invalid --step-frames %q: %w", argv[i], err)
			}
			cfg.Settings.StepFrames = v
		case "--melspectrogram-model":
			ensureArg(i)
			i++
			cfg.Settings.MelModelPath = argv[i]
		case "--embedding-model":
			ensureArg(i)
			i++
			cfg.Settings.EmbeddingModelPath = argv[i]
		case "--onnx-lib":
			ensureArg(i)
			i++
			cfg.OnnxLibraryPath = argv[i]
		case "--input":
			ensureArg(i)
			i++
			cfg.InputPath = argv[i]
		case "--mic":
			cfg.Mic = true
		case "--log-file":
			ensureArg(i)
			i++
			cfg.LogFile = argv[i]
		case "--verbose":
			cfg.Verbose = true
		case "--quiet":
			cfg.Quiet = true
		case "--debug":
			cfg.Settings.Debug = true
		case "-h", "--help":
			printUsage(argv)
			os.Exit(0)
		}
	}

	if len(cfg.Settings.WakeWordModelPaths) == 0 {
		fmt.Fprintln(os.Stderr, "[ERROR] --model is required")
		os.Exit(1)
	}

	cfg.Settings.Normalize()
	return cfg, nil
}

func printUsage(argv []string) {
	prog := argv[0]
	fmt.Fprintln(os.Stderr)
	fmt.Fprintf(os.Stderr, "usage: %s [options]\n", prog)
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "   -h        --help                  show this message and exit")
	fmt.Fprintln(os.Stderr, "   -m  FILE  --model          FILE   path to wake word model (repeat for multiple models)")
	fmt.Fprintln(os.Stderr, "   -t  NUM   --threshold      NUM    threshold for activation (0-1, default: 0.5)")
	fmt.Fprintln(os.Stderr, "   -l  NUM   --trigger-level  NUM    number of activations before output (default: 4)")
	fmt.Fprintln(os.Stderr, "   -r  NUM   --refractory     NUM    number of steps after activation to wait (default: 20)")
	fmt.Fprintln(os.Stderr, "   --step-frames              NUM    number of 80 ms audio chunks to process at a time (default: 4)")
	fmt.Fprintln(os.Stderr, "   --melspectrogram-model     FILE   path to melspectrogram.onnx file")
	fmt.Fprintln(os.Stderr, "   --embedding-model          FILE   path to embedding_model.onnx file")
	fmt.Fprintln(os.Stderr, "   --debug                           print model probabilities to stderr")
	fmt.Fprintln(os.Stderr, "   --onnx-lib                 FILE   path to the ONNX Runtime shared library")
	fmt.Fprintln(os.Stderr, "   --input                    FILE   read samples from a file (raw PCM or .wav) instead of stdin")
	fmt.Fprintln(os.Stderr, "   --mic                             capture from the default microphone instead of stdin")
	fmt.Fprintln(os.Stderr, "   --log-file                 FILE   file to write logs to (default: stderr)")
	fmt.Fprintln(os.Stderr, "   --verbose                         enable verbose/debug logging")
	fmt.Fprintln(os.Stderr, "   --quiet                           disable leveled logging ([LOG] status lines are still printed)")
	fmt.Fprintln(os.Stderr)
}
