package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/jclass/classfile"
)

func main() {
	path, cfg, interactive, err := parseArgs(os.Args[1:])
	if err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		usage()
		os.Exit(2)
	}

	log := newLogger(cfg.Log.Verbose)
	defer log.Sync()
	classfile.SetLogger(log)

	if interactive {
		if err := runInteractive(path, cfg, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(path, cfg, log, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: classdump [-format text|cbor] [-code] [-roundtrip] <File.class>")
	fmt.Fprintln(os.Stderr, "       classdump -i <File.class>  (interactive mode)")
}

// parseArgs merges the config file with the command line. Only flags that
// were given explicitly override config values.
func parseArgs(args []string) (string, *Config, bool, error) {
	fs := flag.NewFlagSet("classdump", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		configFile  = fs.String("config", "", "Path to config file (default ./"+defaultConfigName+" if present)")
		format      = fs.String("format", "text", "Output format: text or cbor")
		color       = fs.String("color", "auto", "Color output: auto, always or never")
		code        = fs.Bool("code", false, "Disassemble method bytecode")
		raw         = fs.Bool("raw", false, "Keep every attribute as opaque bytes")
		anyMagic    = fs.Bool("any-magic", false, "Accept files without the 0xCAFEBABE signature")
		roundTrip   = fs.Bool("roundtrip", false, "Re-encode and compare with the input")
		verbose     = fs.Bool("v", false, "Debug logging to stderr")
		interactive = fs.Bool("i", false, "Interactive mode with TUI")
	)
	if err := fs.Parse(args); err != nil {
		return "", nil, false, err
	}
	if fs.NArg() != 1 {
		return "", nil, false, fmt.Errorf("expected one class file, got %d arguments", fs.NArg())
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		return "", nil, false, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "format":
			cfg.Output.Format = *format
		case "color":
			cfg.Output.Color = *color
		case "code":
			cfg.Output.Code = *code
		case "roundtrip":
			cfg.Output.RoundTrip = *roundTrip
		case "raw":
			cfg.Decode.Raw = *raw
		case "any-magic":
			cfg.Decode.AnyMagic = *anyMagic
		case "v":
			cfg.Log.Verbose = *verbose
		}
	})
	if err := cfg.validate(); err != nil {
		return "", nil, false, err
	}
	return fs.Arg(0), cfg, *interactive, nil
}

func newLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

func decodeOptions(cfg *Config, log *zap.Logger) []classfile.Option {
	opts := []classfile.Option{classfile.WithLogger(log)}
	if cfg.Decode.Raw {
		opts = append(opts, classfile.WithRawAttributes())
	}
	if cfg.Decode.AnyMagic {
		opts = append(opts, classfile.WithAnyMagic())
	}
	return opts
}

func loadClass(path string, cfg *Config, log *zap.Logger) (*classfile.ClassFile, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read file: %w", err)
	}
	cf, err := classfile.Parse(data, decodeOptions(cfg, log)...)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return cf, data, nil
}

// run decodes path and writes the report to stdout. The report is
// assembled first so that nothing is written when any step fails.
func run(path string, cfg *Config, log *zap.Logger, stdout io.Writer) error {
	cf, data, err := loadClass(path, cfg, log)
	if err != nil {
		return err
	}
	log.Debug("class loaded", zap.String("path", path), zap.Int("bytes", len(data)))

	var out bytes.Buffer
	switch cfg.Output.Format {
	case "cbor":
		if err := exportCBOR(&out, cf); err != nil {
			return err
		}
	default:
		p := newPrinter(&out, newRenderer(&out, cfg.Output.Color, isTerminal(stdout)))
		p.code = cfg.Output.Code
		if err := p.printClass(cf); err != nil {
			return err
		}
	}

	if cfg.Output.RoundTrip {
		if err := checkRoundTrip(cf, data); err != nil {
			return err
		}
		if cfg.Output.Format != "cbor" {
			fmt.Fprintf(&out, "\nround trip: %d bytes identical\n", len(data))
		}
	}

	_, err = stdout.Write(out.Bytes())
	return err
}

// checkRoundTrip re-encodes cf and compares the result with the input.
func checkRoundTrip(cf *classfile.ClassFile, data []byte) error {
	got, err := cf.Bytes()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if bytes.Equal(got, data) {
		return nil
	}
	off := 0
	for off < len(got) && off < len(data) && got[off] == data[off] {
		off++
	}
	return fmt.Errorf("round trip differs at offset %d (input %d bytes, re-encoded %d bytes)",
		off, len(data), len(got))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
