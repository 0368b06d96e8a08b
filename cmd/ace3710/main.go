// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/golang/glog"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/ezrec/ace3710/asm"
	"github.com/ezrec/ace3710/config"
	"github.com/ezrec/ace3710/cpu"
	"github.com/ezrec/ace3710/internal"
	"github.com/ezrec/ace3710/segment"
	"github.com/ezrec/ace3710/translate"
)

const version = "1.0.12"

var f = translate.From

var ErrTerminal = errors.New(f("Refusing to write raw output to a terminal"))

type options struct {
	output        string
	textByte      bool
	textWord      bool
	raw           bool
	configFile    string
	configDefault bool
	word          bool
	byteMode      bool
	bigEndian     bool
	littleEndian  bool
	defines       []string
	dumpSymbols   bool
	lang          string
}

func main() {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "ace3710 [flags] source.s",
		Short:         "Macro assembler for the ACE3710",
		Version:       version,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.lang) == 0 {
				return nil
			}
			return translate.SetLanguage(opts.lang)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return assemble(cmd.Context(), opts, args[0], os.Stdout, os.Stderr)
		},
	}
	rootCmd.SetVersionTemplate("ace3710 version {{.Version}}\n")

	addFlags(rootCmd.Flags(), opts)
	rootCmd.MarkFlagsMutuallyExclusive("raw", "text-byte", "text-word")
	rootCmd.MarkFlagsMutuallyExclusive("config", "config-default")
	rootCmd.MarkFlagsMutuallyExclusive("byte", "word")
	rootCmd.MarkFlagsMutuallyExclusive("little-endian", "big-endian")

	rootCmd.PersistentFlags().StringVar(&opts.lang, "lang", "", "Message language, ie \"de-CH\" (default from the locale)")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "instructions",
		Short: "List the instruction mnemonics and directives",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			listInstructions(cmd.OutOrStdout())
		},
	})

	err := rootCmd.ExecuteContext(context.Background())
	glog.Flush()
	if err != nil {
		if !errors.Is(err, asm.ErrAssembly) {
			fmt.Fprintf(os.Stderr, "ace3710: %v\n", err)
		}
		os.Exit(1)
	}
}

func addFlags(flags *pflag.FlagSet, opts *options) {
	flags.StringVarP(&opts.output, "output", "o", "a.out", "Output file, or - for stdout")
	flags.BoolVarP(&opts.raw, "raw", "r", false, "Raw binary output (default)")
	flags.BoolVarP(&opts.textByte, "text-byte", "t", false, "Text output, one hex byte per cell")
	flags.BoolVarP(&opts.textWord, "text-word", "T", false, "Text output, one hex word per cell")
	flags.StringVarP(&opts.configFile, "config", "c", "", "Memory layout configuration (.cfg or .star)")
	flags.BoolVarP(&opts.configDefault, "config-default", "d", false, "Use the default memory layout")
	flags.BoolVarP(&opts.byteMode, "byte", "b", false, "Byte addressed image (default)")
	flags.BoolVarP(&opts.word, "word", "w", false, "Word addressed image")
	flags.BoolVarP(&opts.littleEndian, "little-endian", "L", false, "Little endian words (default)")
	flags.BoolVarP(&opts.bigEndian, "big-endian", "B", false, "Big endian words")
	flags.StringArrayVarP(&opts.defines, "define", "D", nil, "Predefine NAME[=expr]")
	flags.BoolVar(&opts.dumpSymbols, "dump-symbols", false, "Print the symbol and segment tables")
}

// listInstructions prints each mnemonic with its operands, and then each
// directive.
func listInstructions(w io.Writer) {
	names := internal.IterSeqConcat(slices.Values(cpu.Mnemonics()), slices.Values(asm.Directives()))
	for name := range names {
		op, ok := cpu.Lookup(name)
		if !ok {
			fmt.Fprintf(w, "%-8s directive\n", name)
			continue
		}
		fmt.Fprintf(w, "%-8s %-4v %v\n", name, op.Class, op)
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// layout returns the memory layout selected by the options.
func layout(opts *options, stderr io.Writer) (lay *segment.Layout, err error) {
	if len(opts.configFile) == 0 {
		if !opts.configDefault {
			translate.Fprintf(stderr, "WARNING: No configuration specified, using default\n")
		}
		lay = segment.Default()
		return
	}

	inf, err := os.Open(opts.configFile)
	if err != nil {
		return
	}
	defer inf.Close()

	return config.Load(opts.configFile, inf)
}

// assemble assembles the named source file, and writes the image to the
// output selected by the options. "-" selects stdout.
func assemble(ctx context.Context, opts *options, name string, stdout io.Writer, stderr io.Writer) (err error) {
	color := isTerminal(stderr)

	lay, err := layout(opts, stderr)
	if err != nil {
		return
	}

	as := &asm.Assembler{
		Layout:    lay,
		BigEndian: opts.bigEndian,
		Stderr:    stderr,
		Color:     color,
	}
	if opts.word {
		as.WordSize = 1
	}
	for _, def := range opts.defines {
		sym, value, _ := strings.Cut(def, "=")
		as.Predefine(sym, value)
	}

	err = as.Assemble(ctx, name)
	for _, d := range as.Errors {
		_ = d.Render(stderr, color)
	}
	if err != nil {
		return
	}

	if glog.V(1) {
		for _, file := range as.Files.Files() {
			glog.Infof("read %s (%d bytes)", file.Name, len(file.Data))
		}
	}

	if opts.dumpSymbols {
		printer := pp.New()
		printer.SetOutput(stderr)
		printer.SetColoringEnabled(color)
		printer.Println(as.Defines.Len()+as.Vars.Len(), "symbols")
		for sym, value := range as.Symbols() {
			printer.Printf("%-24s $%04x\n", sym, value)
		}
		printer.Println(lay.Segments)
	}

	wr := &segment.Writer{
		LittleEndian: !opts.bigEndian,
		WordSize:     as.WordSize,
	}
	switch {
	case opts.textByte:
		wr.Format = segment.FormatHexByte
	case opts.textWord:
		wr.Format = segment.FormatHexWord
	default:
		wr.Format = segment.FormatRaw
	}

	var out io.Writer
	if opts.output == "-" {
		if wr.Format == segment.FormatRaw && isTerminal(stdout) {
			err = ErrTerminal
			return
		}
		out = stdout
	} else {
		ouf, cerr := os.Create(opts.output)
		if cerr != nil {
			err = cerr
			return
		}
		defer func() {
			cerr := ouf.Close()
			if err == nil {
				err = cerr
			}
		}()
		out = ouf
	}

	glog.V(1).Infof("writing %s", opts.output)
	err = wr.Write(out, lay)
	return
}
