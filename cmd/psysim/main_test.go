package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-psych/adaptive/procedure"
	"github.com/cwbudde/algo-psych/adaptive/psi"
)

func runArgs(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)

	return stdout.String(), stderr.String(), err
}

func TestList(t *testing.T) {
	out, _, err := runArgs(t, "--list")
	require.NoError(t, err)

	assert.Equal(t, procedure.DefaultRegistry().Kinds(), strings.Fields(out))
}

func TestStaircaseFromConfig(t *testing.T) {
	out, _, err := runArgs(t, "-q", "-c", "testdata/staircase.yaml", "--alpha", "10", "--trace")
	require.NoError(t, err)

	assert.Contains(t, out, "Trial")
	assert.Regexp(t, `kind\s+staircase`, out)
	assert.Regexp(t, `(?m)^sd\s+\d`, out)
	assert.NotContains(t, out, "posterior saved")
}

func TestPSIStateDirResumes(t *testing.T) {
	dir := t.TempDir()
	args := []string{"-q", "-n", "6", "--state-dir", dir, "--label", "left-ear", "--alpha", "3"}

	out, _, err := runArgs(t, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "posterior saved to")

	_, _, err = runArgs(t, append(args, "--seed", "2")...)
	require.NoError(t, err)

	store, err := psi.NewDirStore(dir)
	require.NoError(t, err)

	snap, err := store.Load("left-ear")
	require.NoError(t, err)
	assert.Equal(t, 12, snap.Trials)
}

func TestVerboseLogsTrials(t *testing.T) {
	_, logs, err := runArgs(t, "-v", "--kind", "pest", "--trials", "20")
	require.NoError(t, err)

	assert.Contains(t, logs, "cpu features")
	assert.Contains(t, logs, "trial")
	assert.Contains(t, logs, "session ended")
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--nope"}},
		{"positional argument", []string{"hann"}},
		{"unknown kind", []string{"-q", "--kind", "cauchy"}},
		{"unknown family", []string{"-q", "--family", "cauchy"}},
		{"bad listener", []string{"-q", "--beta", "0"}},
		{"missing config", []string{"-q", "-c", "testdata/none.yaml"}},
		{"psi without budget", []string{"-q", "--trials", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runArgs(t, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestHelp(t *testing.T) {
	_, usage, err := runArgs(t, "--help")
	require.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, usage, "--state-dir")
}

func TestLoadConfigBudget(t *testing.T) {
	tests := []struct {
		name string
		o    options
		want int
	}{
		{"psi default", options{trials: -1}, defaultTrials},
		{"maxlik default", options{kind: "maxlik", trials: -1}, defaultTrials},
		{"staircase ends on turnpoints", options{kind: "staircase", trials: -1}, 0},
		{"pest ends on step size", options{kind: "pest", trials: -1}, 0},
		{"explicit", options{kind: "staircase", trials: 30}, 30},
		{"config file keeps its value", options{config: "testdata/staircase.yaml", trials: -1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(tt.o)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.MaxTrials)
		})
	}
}

func TestHybridPrintsPercentCorrect(t *testing.T) {
	out, _, err := runArgs(t, "-q", "-c", "testdata/hybrid.yaml", "--alpha", "90")
	require.NoError(t, err)

	assert.Regexp(t, `percent correct at limit\s+\d`, out)
}
