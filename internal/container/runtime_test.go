// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExecutor records piped invocations and answers LookPath/RunSilent from
// fixed tables.
type mockExecutor struct {
	availableBins map[string]bool
	runnableCmds  map[string]bool
	runPipedFunc  func(name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error
	pipedArgs     []string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.availableBins[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("not found: " + file)
}

func (m *mockExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	key := name + " " + strings.Join(args, " ")
	if m.runnableCmds[key] {
		return nil
	}
	return errors.New("command failed: " + key)
}

func (m *mockExecutor) RunPiped(_ context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	m.pipedArgs = args
	if m.runPipedFunc != nil {
		return m.runPipedFunc(name, args, stdin, stdout, stderr)
	}
	return nil
}

func TestDetectRuntime(t *testing.T) {
	tests := []struct {
		name     string
		exec     *mockExecutor
		wantName string
		wantErr  bool
	}{
		{
			name: "docker available",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true},
				runnableCmds:  map[string]bool{"docker info": true},
			},
			wantName: "docker",
		},
		{
			name: "podman fallback when docker missing",
			exec: &mockExecutor{
				availableBins: map[string]bool{"podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name:    "neither available",
			exec:    &mockExecutor{},
			wantErr: true,
		},
		{
			name: "docker on PATH but info fails",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"podman info": true},
			},
			wantName: "podman",
		},
		{
			name: "docker preferred",
			exec: &mockExecutor{
				availableBins: map[string]bool{"docker": true, "podman": true},
				runnableCmds:  map[string]bool{"docker info": true, "podman info": true},
			},
			wantName: "docker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detectRuntime(context.Background(), tt.exec)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "no container runtime available")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, rt.Name())
		})
	}
}

func TestImageExists(t *testing.T) {
	const image = "markitdown:latest"

	tests := []struct {
		name    string
		mkRT    func(*mockExecutor) Runtime
		cmds    map[string]bool
		wantErr bool
	}{
		{
			name: "docker image exists",
			mkRT: func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			cmds: map[string]bool{"docker image inspect " + image: true},
		},
		{
			name:    "docker image missing",
			mkRT:    func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			wantErr: true,
		},
		{
			name: "podman image exists",
			mkRT: func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			cmds: map[string]bool{"podman image exists " + image: true},
		},
		{
			name:    "podman image missing",
			mkRT:    func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := tt.mkRT(&mockExecutor{runnableCmds: tt.cmds})
			err := rt.ImageExists(context.Background(), image)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), image)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRun(t *testing.T) {
	echo := func(name string) func(string, []string, io.Reader, io.Writer, io.Writer) error {
		return func(bin string, _ []string, stdin io.Reader, stdout, _ io.Writer) error {
			if bin != name {
				return errors.New("unexpected binary " + bin)
			}
			data, _ := io.ReadAll(stdin)
			_, _ = stdout.Write([]byte("text: " + string(data)))
			return nil
		}
	}

	tests := []struct {
		name     string
		mkRT     func(*mockExecutor) Runtime
		pipeFunc func(string, []string, io.Reader, io.Writer, io.Writer) error
		wantOut  string
		wantErr  string
	}{
		{
			name:     "docker pipes stdin to stdout",
			mkRT:     func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			pipeFunc: echo("docker"),
			wantOut:  "text: report bytes",
		},
		{
			name:     "podman pipes stdin to stdout",
			mkRT:     func(e *mockExecutor) Runtime { return newPodmanRuntime(e) },
			pipeFunc: echo("podman"),
			wantOut:  "text: report bytes",
		},
		{
			name: "failure quotes stderr",
			mkRT: func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			pipeFunc: func(_ string, _ []string, _ io.Reader, _, stderr io.Writer) error {
				_, _ = stderr.Write([]byte("  unsupported file type\n"))
				return errors.New("exit status 1")
			},
			wantErr: "exit status 1: unsupported file type",
		},
		{
			name: "failure without stderr",
			mkRT: func(e *mockExecutor) Runtime { return newDockerRuntime(e) },
			pipeFunc: func(string, []string, io.Reader, io.Writer, io.Writer) error {
				return errors.New("exit status 125")
			},
			wantErr: "running docker container markitdown:latest: exit status 125",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := &mockExecutor{runPipedFunc: tt.pipeFunc}
			rt := tt.mkRT(ex)

			var out bytes.Buffer
			err := rt.Run(context.Background(), "markitdown:latest", strings.NewReader("report bytes"), &out)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOut, out.String())
			assert.Equal(t, []string{"run", "--rm", "-i", "--network", "none", "markitdown:latest"}, ex.pipedArgs)
		})
	}
}

func TestRun_TruncatesStderr(t *testing.T) {
	ex := &mockExecutor{
		runPipedFunc: func(_ string, _ []string, _ io.Reader, _, stderr io.Writer) error {
			_, _ = stderr.Write(bytes.Repeat([]byte("x"), 2*maxStderr))
			return errors.New("exit status 1")
		},
	}
	err := newDockerRuntime(ex).Run(context.Background(), "img", strings.NewReader(""), io.Discard)
	require.Error(t, err)
	assert.True(t, strings.HasSuffix(err.Error(), "..."))
	assert.Less(t, len(err.Error()), 2*maxStderr)
}

func TestRuntimeName(t *testing.T) {
	assert.Equal(t, "docker", newDockerRuntime(&mockExecutor{}).Name())
	assert.Equal(t, "podman", newPodmanRuntime(&mockExecutor{}).Name())
}
