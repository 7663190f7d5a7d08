// Package mcptools exposes the voice codec as Model Context Protocol tools
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	_ "embed"

	"github.com/charmbracelet/log"
	"github.com/james-see/dx7syx/pkg/converter"
	"github.com/james-see/dx7syx/pkg/converter/devices"
	"github.com/james-see/dx7syx/pkg/diag"
	"github.com/james-see/dx7syx/pkg/transform"
	"github.com/james-see/dx7syx/pkg/voice"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

//go:embed dx7_bulk_dump_format.txt
var formatDoc string

// Options configures decoding
type Options struct {
	Limit           int
	LenientChecksum bool
	Logger          *log.Logger
}

// DecodeResult is the JSON body returned by the decode tool
type DecodeResult struct {
	Voices      []voice.NamedVoice `json:"voices"`
	Diagnostics []string           `json:"diagnostics"`
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	return o
}

type tools struct {
	opts Options
}

// NewServer registers the dx7 tools on a new MCP server
func NewServer(opts Options) *server.MCPServer {
	t := &tools{opts: opts.withDefaults()}

	s := server.NewMCPServer(
		"DX7 SysEx MCP",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("dx7_describe-format",
		mcp.WithDescription("Returns a description of the Yamaha DX7 32-voice bulk dump format."),
	), t.describeFormat)

	s.AddTool(mcp.NewTool("dx7_decode-bank",
		mcp.WithDescription("Decodes a voice bank file (SysEx, XML, gzipped XML or MIDI) and returns its voices and diagnostics as JSON."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the bank file.")),
	), t.decodeBank)

	s.AddTool(mcp.NewTool("dx7_algorithm",
		mcp.WithDescription("Lists the carrier and modulator operators of a DX7 algorithm."),
		mcp.WithNumber("algorithm", mcp.Required(), mcp.Description("The algorithm number (1-32).")),
	), t.algorithm)

	s.AddTool(mcp.NewTool("dx7_staccato",
		mcp.WithDescription("Sets the attack and/or release rate of the selected operators of every voice to 99 and writes the result."),
		mcp.WithString("input", mcp.Required(), mcp.Description("Path of the bank to read.")),
		mcp.WithString("output", mcp.Required(), mcp.Description("Path to write; the format follows the extension.")),
		mcp.WithString("affect", mcp.Description("carriers, modulators or all (default carriers).")),
		mcp.WithBoolean("attack", mcp.Description("Modify the attack rate (default true).")),
		mcp.WithBoolean("release", mcp.Description("Modify the release rate (default true).")),
	), t.staccato)

	return s
}

// Serve runs the tools over stdio until the client disconnects
func Serve(opts Options) error {
	s := NewServer(opts)
	opts.withDefaults().Logger.Info("starting DX7 MCP server")
	return server.ServeStdio(s)
}

func (t *tools) converter(l diag.Listener) *converter.Converter {
	conv := converter.New(&devices.DX7{
		Limit:           t.opts.Limit,
		LenientChecksum: t.opts.LenientChecksum,
		Logger:          t.opts.Logger,
	})
	conv.SetListener(l)
	return conv
}

func (t *tools) describeFormat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.opts.Logger.Debug("[mcp] handling format description request")
	return mcp.NewToolResultText(formatDoc), nil
}

func (t *tools) decodeBank(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t.opts.Logger.Info("[mcp] decoding bank", "path", path)

	var events diag.Log
	voices, err := t.converter(&events).ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res := DecodeResult{Voices: voices, Diagnostics: []string{}}
	for _, e := range events.Events() {
		res.Diagnostics = append(res.Diagnostics, e.String())
	}
	asJSON, err := json.MarshalIndent(&res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal voices to JSON: %v", err)
	}
	return mcp.NewToolResultText(string(asJSON)), nil
}

func (t *tools) algorithm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, err := request.RequireInt("algorithm")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := voice.NewAlgorithmID(n)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info := voice.DescribeAlgorithm(a)
	return mcp.NewToolResultText(fmt.Sprintf("Algorithm %d: carriers %s, modulators %s",
		a, voice.Carriers(a), voice.Modulators(a))+"\n"+mustJSON(info)), nil
}

func (t *tools) staccato(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("input")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	output, err := request.RequireString("output")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	affect, err := transform.ParseAffect(request.GetString("affect", "carriers"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p := transform.StaccatoParameters{
		Affect:        affect,
		ModifyAttack:  request.GetBool("attack", true),
		ModifyRelease: request.GetBool("release", true),
	}
	t.opts.Logger.Info("[mcp] applying staccato", "input", input, "output", output, "affect", affect)

	var events diag.Log
	conv := t.converter(&events)
	voices, err := conv.ReadFile(input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := conv.WriteFile(output, transform.Apply(voices, transform.Staccato(p))); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Wrote %d voices to %s (%d errors, %d warnings while reading).",
		len(voices), output, len(events.Errors()), len(events.Warnings()))), nil
}

func mustJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return err.Error()
	}
	return string(b)
}
