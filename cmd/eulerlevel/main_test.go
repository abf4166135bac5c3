package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRoot_PrintsLevels(t *testing.T) {
	cases := map[string]string{
		"A":       "A:0",
		"AB":      "A:0,B:1",
		"ABC":     "A:0,B:1,C:1",
		"ABCD":    "A:0,B:1,C:1,D:2",
		"ABCDEFG": "A:0,B:1,C:1,D:2,E:2,F:2,G:2",
	}
	for in, want := range cases {
		stdout, _, err := execute(t, in)
		require.NoError(t, err, in)
		require.Equal(t, want+"\n", stdout, in)
	}
}

func TestRoot_Tour(t *testing.T) {
	stdout, stderr, err := execute(t, "--tour", "ABCD")
	require.NoError(t, err)
	require.Equal(t, "A:0,B:1,C:1,D:2\n", stdout)
	require.Contains(t, stderr, "tour: A->B B->D B<-D A<-B A->C A<-C")
}

func TestRoot_Errors(t *testing.T) {
	_, _, err := execute(t)
	require.Error(t, err)

	stdout, _, err := execute(t, "A:B")
	require.Error(t, err)
	require.Empty(t, stdout)

	_, _, err = execute(t, "--ranks", "3", "ABC")
	require.Error(t, err)
	require.Contains(t, err.Error(), "rank count must equal")
}

func TestRoot_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eulerlevel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: v1\nengine:\n  max_nodes: 2\n"), 0o600))

	stdout, _, err := execute(t, "--config", path, "AB")
	require.NoError(t, err)
	require.Equal(t, "A:0,B:1\n", stdout)

	_, _, err = execute(t, "--config", path, "ABC")
	require.ErrorContains(t, err, "exceeds max_nodes")

	_, _, err = execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"), "AB")
	require.Error(t, err)
}
