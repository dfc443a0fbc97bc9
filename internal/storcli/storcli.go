package storcli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

const DefaultPath = "/opt/MegaRAID/storcli/storcli64"

// Value keeps a scalar from the storcli document as it was encoded, so
// numeric controller ids stay numeric in the output.
type Value struct {
	raw json.RawMessage
}

func (v *Value) UnmarshalJSON(data []byte) error {
	v.raw = append(v.raw[:0], data...)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if len(v.raw) == 0 {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// String renders the value the way it should appear inside a composed id or name.
func (v Value) String() string {
	if len(v.raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(v.raw))
}

type Document struct {
	Controllers []Controller `json:"Controllers"`
}

type Controller struct {
	ResponseData ResponseData `json:"Response Data"`
}

type ResponseData struct {
	Basics struct {
		Controller   Value `json:"Controller"`
		Model        Value `json:"Model"`
		SerialNumber Value `json:"Serial Number"`
	} `json:"Basics"`
	Version struct {
		Firmware Value `json:"Firmware Version"`
	} `json:"Version"`
	Status struct {
		Controller Value `json:"Controller Status"`
	} `json:"Status"`
	HwCfg struct {
		Temperature Value `json:"ROC temperature(Degree Celsius)"`
	} `json:"HwCfg"`
	PhysicalDrives []PhysicalDrive `json:"PD LIST"`
	VirtualDrives  []VirtualDrive  `json:"VD LIST"`
}

type PhysicalDrive struct {
	Slot   Value `json:"EID:Slt"`
	Medium Value `json:"Med"`
	Model  Value `json:"Model"`
	Size   Value `json:"Size"`
	State  Value `json:"State"`
}

type VirtualDrive struct {
	ID    Value `json:"DG/VD"`
	Name  Value `json:"Name"`
	Type  Value `json:"TYPE"`
	Size  Value `json:"Size"`
	State Value `json:"State"`
}

// Parse decodes the output of "storcli /call show all J".
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse storcli output: %w", err)
	}
	return doc, nil
}

// Runner executes storcli and returns its standard output.
type Runner interface {
	Run(ctx context.Context, path string, args ...string) ([]byte, error)
}

type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, path string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("run %s: %w: %s", path, err, msg)
		}
		return nil, fmt.Errorf("run %s: %w", path, err)
	}
	return stdout.Bytes(), nil
}

// Load runs storcli against every controller and parses the result.
func Load(ctx context.Context, runner Runner, path string) (Document, error) {
	out, err := runner.Run(ctx, path, "/call", "show", "all", "J")
	if err != nil {
		return Document{}, err
	}
	return Parse(out)
}
