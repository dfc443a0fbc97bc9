package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

type stubRunner struct {
	out []byte
	err error
}

func (s stubRunner) Run(context.Context, string, ...string) ([]byte, error) {
	return s.out, s.err
}

const oneController = `{"Controllers":[{"Response Data":{"Basics":{"Controller":0,"Model":"M","Serial Number":"S"},"PD LIST":[],"VD LIST":[]}}]}`

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		runner stubRunner
		code   int
		stdout string
	}{
		{name: "no args", args: nil, code: 1},
		{name: "two modes", args: []string{"--discover-pd", "--discover-vd"}, code: 2},
		{name: "storcli fails", args: []string{"--get-info"}, runner: stubRunner{err: errors.New("not found")}, code: 3},
		{name: "discover controller", args: []string{"--discover-controller"}, runner: stubRunner{out: []byte(oneController)}, code: 0, stdout: `"{#SERIAL}": "S"`},
		{name: "discover vd", args: []string{"--storcli-path", "/usr/sbin/storcli", "--discover-vd"}, runner: stubRunner{out: []byte(oneController)}, code: 0, stdout: `"data": []`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(context.Background(), tt.args, tt.runner, &stdout, &stderr); code != tt.code {
				t.Fatalf("exit code = %d, want %d (stderr %s)", code, tt.code, stderr.String())
			}
			if !strings.Contains(stdout.String(), tt.stdout) {
				t.Fatalf("stdout = %s, want it to contain %s", stdout.String(), tt.stdout)
			}
		})
	}
}
