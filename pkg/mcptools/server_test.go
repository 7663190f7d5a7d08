package mcptools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/james-see/dx7syx/pkg/converter"
	"github.com/james-see/dx7syx/pkg/converter/devices"
	"github.com/james-see/dx7syx/pkg/voice"
	"github.com/mark3labs/mcp-go/mcp"
)

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	if len(res.Content) == 0 {
		t.Fatal("empty result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text, res.IsError
	case *mcp.TextContent:
		return c.Text, res.IsError
	}
	t.Fatalf("unexpected content %T", res.Content[0])
	return "", false
}

func writeBank(t *testing.T) string {
	t.Helper()
	v := voice.DefaultVoice()
	op := v.Operator(1)
	op.Envelope[3].Rate = 12
	v = v.WithOperator(op)
	nv, err := voice.NewNamedVoice("SOFT PAD  ", v)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "bank.syx")
	if err := converter.New(devices.NewDX7()).WriteFile(path, []voice.NamedVoice{nv}); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTools() *tools {
	return &tools{opts: Options{}.withDefaults()}
}

func TestNewServer(t *testing.T) {
	if NewServer(Options{}) == nil {
		t.Fatal("NewServer() returned nil")
	}
}

func TestDescribeFormat(t *testing.T) {
	text, isErr := call(t, newTools().describeFormat, nil)
	if isErr || !strings.Contains(text, "F0") || !strings.Contains(text, "checksum") {
		t.Errorf("describe-format returned %q", text)
	}
}

func TestDecodeBank(t *testing.T) {
	tl := newTools()
	text, isErr := call(t, tl.decodeBank, map[string]interface{}{"path": writeBank(t)})
	if isErr {
		t.Fatalf("decode-bank error: %s", text)
	}
	var res DecodeResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		t.Fatal(err)
	}
	if len(res.Voices) != 1 || res.Voices[0].Name != "SOFT PAD  " || len(res.Diagnostics) != 0 {
		t.Errorf("decode-bank = %+v", res)
	}

	if _, isErr := call(t, tl.decodeBank, map[string]interface{}{}); !isErr {
		t.Error("missing path should be a tool error")
	}
	if _, isErr := call(t, tl.decodeBank, map[string]interface{}{"path": "/nonexistent/bank.syx"}); !isErr {
		t.Error("missing file should be a tool error")
	}
}

func TestAlgorithm(t *testing.T) {
	tl := newTools()
	text, isErr := call(t, tl.algorithm, map[string]interface{}{"algorithm": float64(32)})
	if isErr || !strings.Contains(text, "carriers {1,2,3,4,5,6}") {
		t.Errorf("algorithm 32 = %q", text)
	}
	if _, isErr := call(t, tl.algorithm, map[string]interface{}{"algorithm": float64(0)}); !isErr {
		t.Error("algorithm 0 should be a tool error")
	}
}

func TestStaccato(t *testing.T) {
	input := writeBank(t)
	output := filepath.Join(filepath.Dir(input), "out.xml")
	text, isErr := call(t, newTools().staccato, map[string]interface{}{
		"input":  input,
		"output": output,
		"affect": "all",
		"attack": false,
	})
	if isErr {
		t.Fatalf("staccato error: %s", text)
	}

	voices, err := converter.New(devices.NewDX7()).ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	env := voices[0].Voice.Operator(1).Envelope
	if env[3].Rate != 99 {
		t.Errorf("release rate = %d, want 99", env[3].Rate)
	}
	if env[0].Rate != voice.DefaultOperator(1).Envelope[0].Rate {
		t.Errorf("attack rate changed to %d", env[0].Rate)
	}
}
