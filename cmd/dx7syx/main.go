// Package main is the entry point for the dx7syx CLI
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/james-see/dx7syx/pkg/api"
	"github.com/james-see/dx7syx/pkg/config"
	"github.com/james-see/dx7syx/pkg/converter"
	"github.com/james-see/dx7syx/pkg/converter/devices"
	"github.com/james-see/dx7syx/pkg/diag"
	"github.com/james-see/dx7syx/pkg/mcptools"
	"github.com/james-see/dx7syx/pkg/transform"
	"github.com/james-see/dx7syx/pkg/tui"
	"github.com/james-see/dx7syx/pkg/voice"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath      string
	verbose         bool
	limit           int
	lenientChecksum bool
	outputFile      string
	outputFormat    string
	jsonOutput      bool
	splitDir        string
	pickRandom32    bool
	randomSeed      int64
	affectName      string
	modifyAttack    bool
	modifyRelease   bool
	serverPort      int

	cfg    = config.Default()
	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "dx7syx"})
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dx7syx",
	Short: "Decode, convert and transform Yamaha DX7 voice banks",
	Long: `dx7syx reads and writes Yamaha DX7 32-voice SysEx bulk dumps and
converts them to and from XML voice documents and Standard MIDI Files.

Examples:
  dx7syx parse rom1a.syx
  dx7syx convert rom1a.syx -o rom1a.xml
  dx7syx convert-batch banks.txt --pick-random-32 -o random.syx
  dx7syx staccato rom1a.syx -o rom1a-short.syx --affect all
  dx7syx algorithms 5
  dx7syx tui
  dx7syx serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>...",
	Short: "Decode voice banks and list their voices",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

var parseBatchCmd = &cobra.Command{
	Use:   "parse-batch <list>",
	Short: "Decode every bank named in a list file and report totals",
	Args:  cobra.ExactArgs(1),
	RunE:  runParseBatch,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Auto-detect and convert between formats",
	Long:  `Automatically detects input format and converts to the output format based on file extension.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var convertBatchCmd = &cobra.Command{
	Use:   "convert-batch <list>",
	Short: "Merge the voices of every bank named in a list file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvertBatch,
}

var staccatoCmd = &cobra.Command{
	Use:   "staccato <input>",
	Short: "Set attack and/or release rates of selected operators to 99",
	Args:  cobra.ExactArgs(1),
	RunE:  runStaccato,
}

var algorithmsCmd = &cobra.Command{
	Use:   "algorithms [number]",
	Short: "Show carrier and modulator operators of the algorithms",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAlgorithms,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the voice tools over MCP stdio",
	RunE:  runMCP,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().IntVarP(&limit, "limit", "l", 0, "Read at most this many voices per SysEx dump (0 = all)")
	rootCmd.PersistentFlags().BoolVar(&lenientChecksum, "lenient-checksum", false, "Report checksum mismatches as warnings")

	// parse command
	parseCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print voices as JSON")

	// convert command
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	convertCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format (sysex-32, xml, xml.gz, midi)")

	// convert-batch command
	convertBatchCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	convertBatchCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format (sysex-32, xml, xml.gz, midi)")
	convertBatchCmd.Flags().StringVar(&splitDir, "split-dir", "", "Write one file per voice into this directory")
	convertBatchCmd.Flags().BoolVar(&pickRandom32, "pick-random-32", false, "Keep 32 random non-initial voices")
	convertBatchCmd.Flags().Int64Var(&randomSeed, "seed", 0, "Random seed for --pick-random-32 (0 = time based)")

	// staccato command
	staccatoCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path")
	staccatoCmd.Flags().StringVar(&affectName, "affect", "", "Operators to modify: carriers, modulators or all")
	staccatoCmd.Flags().BoolVar(&modifyAttack, "attack", true, "Modify the attack (R1) rate")
	staccatoCmd.Flags().BoolVar(&modifyRelease, "release", true, "Modify the release (R4) rate")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(parseBatchCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(convertBatchCmd)
	rootCmd.AddCommand(staccatoCmd)
	rootCmd.AddCommand(algorithmsCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
}

// loadConfig reads --config and lets explicitly set flags override it
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("limit") {
		if limit < 0 {
			return errors.Errorf("--limit must be non-negative, got %d", limit)
		}
		c.Limit = limit
	}
	if flags.Changed("lenient-checksum") {
		c.LenientChecksum = lenientChecksum
	}
	if flags.Changed("verbose") {
		c.Verbose = verbose
	}
	if flags.Changed("format") {
		c.OutputFormat = outputFormat
	}
	if flags.Changed("port") {
		c.Server.Port = serverPort
	}
	if flags.Changed("affect") {
		c.Staccato.Affect = affectName
	}
	if flags.Changed("attack") {
		c.Staccato.Attack = modifyAttack
	}
	if flags.Changed("release") {
		c.Staccato.Release = modifyRelease
	}
	cfg = c

	if cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	logger.Debug("configuration", "file", configPath, "limit", cfg.Limit, "lenient", cfg.LenientChecksum)
	return nil
}

// logDiagnostic reports a decode diagnostic through the logger
func logDiagnostic(e diag.Event) {
	kv := []interface{}{"source", e.Source}
	if e.Line > 0 {
		kv = append(kv, "line", e.Line, "column", e.Column)
	} else {
		kv = append(kv, "offset", fmt.Sprintf("0x%x", e.Offset))
	}
	if e.Cause != nil {
		kv = append(kv, "cause", e.Cause)
	}
	if e.Severity == diag.SeverityError {
		logger.Error(e.Message, kv...)
	} else {
		logger.Warn(e.Message, kv...)
	}
}

func getDevice() *devices.DX7 {
	return &devices.DX7{
		Limit:           cfg.Limit,
		LenientChecksum: cfg.LenientChecksum,
		Logger:          logger,
	}
}

// newConverter returns a converter that logs diagnostics and, when events
// is not nil, records them there
func newConverter(events *diag.Log) *converter.Converter {
	conv := converter.New(getDevice())
	if events == nil {
		conv.SetListener(diag.ListenerFunc(logDiagnostic))
	} else {
		conv.SetListener(diag.Multi(diag.ListenerFunc(logDiagnostic), events))
	}
	return conv
}

// outputFormatOf picks --format, then the extension of path, then the configured default
func outputFormatOf(cmd *cobra.Command, path string) (converter.Format, error) {
	if cmd.Flags().Changed("format") {
		return converter.ParseFormat(outputFormat)
	}
	if f := converter.DetectFormat(path); f != converter.FormatUnknown {
		return f, nil
	}
	if cfg.OutputFormat != "" {
		return converter.ParseFormat(cfg.OutputFormat)
	}
	return converter.FormatUnknown, errors.New("cannot determine output format from filename")
}

func getOutputPath(input string, format converter.Format) string {
	if outputFile != "" {
		return outputFile
	}
	return converter.OutputName(input, format)
}

func runParse(cmd *cobra.Command, args []string) error {
	for _, input := range args {
		var events diag.Log
		voices, err := newConverter(&events).ReadFile(input)
		if err != nil {
			return err
		}

		if jsonOutput {
			out, err := json.MarshalIndent(voices, "", "  ")
			if err != nil {
				return errors.Wrap(err, "encoding voices")
			}
			fmt.Println(string(out))
			continue
		}

		fmt.Printf("%s: %d voices (%d errors, %d warnings)\n",
			input, len(voices), len(events.Errors()), len(events.Warnings()))
		for i, nv := range voices {
			v := nv.Voice
			fmt.Printf("  %3d  %-10s  algorithm %2d  feedback %d  transpose %+3d  carriers %s\n",
				i+1, nv.Name, v.Algorithm, v.Feedback, v.Transpose, voice.Carriers(v.Algorithm))
		}
	}
	return nil
}

func runParseBatch(cmd *cobra.Command, args []string) error {
	paths, err := converter.ReadBatchListFile(args[0])
	if err != nil {
		return err
	}

	var events diag.Log
	conv := newConverter(&events)
	var files, failed, total int
	for _, path := range paths {
		voices, err := conv.ReadFile(path)
		if err != nil {
			logger.Error("skipping file", "file", path, "err", err)
			failed++
			continue
		}
		files++
		total += len(voices)
		logger.Debug("parsed", "file", path, "voices", len(voices))
	}

	fmt.Printf("Files: %d parsed, %d failed\n", files, failed)
	fmt.Printf("Voices: %d\n", total)
	fmt.Printf("Warnings: %d\n", len(events.Warnings()))
	fmt.Printf("Errors: %d\n", len(events.Errors()))
	if failed > 0 {
		return errors.Errorf("%d of %d files could not be read", failed, len(paths))
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	conv := newConverter(nil)

	format, err := outputFormatOf(cmd, outputFile)
	if err != nil {
		return err
	}
	output := getOutputPath(input, format)
	if output == input {
		return errors.Errorf("refusing to overwrite %s; pass --output", input)
	}

	fmt.Printf("Converting %s -> %s\n", input, output)
	result, err := conv.ConvertFile(input, output, format)
	if err != nil {
		return err
	}
	fmt.Printf("Converted %d voices (%d diagnostics)\n", result.Voices, len(result.Diagnostics))
	return nil
}

func runConvertBatch(cmd *cobra.Command, args []string) error {
	if outputFile == "" && splitDir == "" {
		return errors.New("one of --output or --split-dir is required")
	}
	paths, err := converter.ReadBatchListFile(args[0])
	if err != nil {
		return err
	}

	var events diag.Log
	conv := newConverter(&events)
	var voices []voice.NamedVoice
	for _, path := range paths {
		vs, err := conv.ReadFile(path)
		if err != nil {
			return err
		}
		voices = append(voices, vs...)
	}
	logger.Info("merged banks", "files", len(paths), "voices", len(voices),
		"errors", len(events.Errors()), "warnings", len(events.Warnings()))

	if pickRandom32 {
		seed := randomSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		voices = converter.PickRandom32(voices, rand.New(rand.NewSource(seed)))
		logger.Debug("picked random voices", "seed", seed, "voices", len(voices))
	}

	if splitDir != "" {
		format, err := outputFormatOf(cmd, "")
		if err != nil {
			return err
		}
		written, err := conv.WriteSplit(splitDir, voices, format)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d files to %s\n", len(written), splitDir)
	}

	if outputFile != "" {
		format, err := outputFormatOf(cmd, outputFile)
		if err != nil {
			return err
		}
		if err := conv.WriteFileAs(outputFile, voices, format); err != nil {
			return err
		}
		fmt.Printf("Wrote %d voices to %s\n", len(voices), outputFile)
	}
	return nil
}

func runStaccato(cmd *cobra.Command, args []string) error {
	input := args[0]
	p, err := cfg.StaccatoParameters()
	if err != nil {
		return err
	}

	var events diag.Log
	conv := newConverter(&events)
	voices, err := conv.ReadFile(input)
	if err != nil {
		return err
	}

	output := outputFile
	if output == "" {
		base := converter.TrimExtension(input)
		output = base + "-staccato" + input[len(base):]
	}
	logger.Debug("staccato", "affect", p.Affect, "attack", p.ModifyAttack, "release", p.ModifyRelease)
	if err := conv.WriteFile(output, transform.Apply(voices, transform.Staccato(p))); err != nil {
		return err
	}
	fmt.Printf("Converted %s -> %s\n", input, output)
	return nil
}

func runAlgorithms(cmd *cobra.Command, args []string) error {
	infos := voice.Algorithms()
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return errors.Errorf("algorithm must be a number, got %q", args[0])
		}
		a, err := voice.NewAlgorithmID(n)
		if err != nil {
			return err
		}
		infos = []voice.AlgorithmInfo{voice.DescribeAlgorithm(a)}
	}
	for _, info := range infos {
		fmt.Printf("%2d  carriers %-15s modulators %s\n", info.Algorithm,
			voice.Carriers(info.Algorithm), voice.Modulators(info.Algorithm))
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	p, err := cfg.StaccatoParameters()
	if err != nil {
		return err
	}
	return tui.Run(tui.Options{
		Limit:           cfg.Limit,
		LenientChecksum: cfg.LenientChecksum,
		Staccato:        p,
		Logger:          logger,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	p, err := cfg.StaccatoParameters()
	if err != nil {
		return err
	}
	fmt.Printf("Starting API server on port %d...\n", cfg.Server.Port)
	return api.StartServer(api.Options{
		Port:            cfg.Server.Port,
		Limit:           cfg.Limit,
		LenientChecksum: cfg.LenientChecksum,
		Staccato:        p,
		Logger:          logger,
	})
}

func runMCP(cmd *cobra.Command, args []string) error {
	return mcptools.Serve(mcptools.Options{
		Limit:           cfg.Limit,
		LenientChecksum: cfg.LenientChecksum,
		Logger:          logger,
	})
}
