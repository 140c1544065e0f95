package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores defaults so tests sharing rootCmd do not leak
// flag values into each other.
func resetFlags(cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				_ = sv.Replace(nil)
			} else {
				_ = f.Value.Set(f.DefValue)
			}
			f.Changed = false
		})
	}
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags(reconstructCmd, plotCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "none.yaml")))
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestReconstructText(t *testing.T) {
	out := execute(t, "reconstruct", "--derivative", "6*x", "--order", "2",
		"--condition", "f(0)=0", "--condition", "f'(0)=1")
	assert.Contains(t, out, "f(x)   = x^3 + x\n")
	assert.Contains(t, out, "f'(x)  = 3*x^2 + 1\n")
	assert.Contains(t, out, "solve: unique\n")
	assert.Contains(t, out, "critical points: none\n")
	assert.Contains(t, out, "inflection points: 0\n")
}

func TestReconstructJSON(t *testing.T) {
	out := execute(t, "reconstruct", "-d", "2*x", "-o", "1", "--condition", "f(0)=5", "--zeros", "0", "--json", "--latex=false")
	var view struct {
		F struct {
			Text string `json:"text"`
		} `json:"f"`
		CriticalPoints []float64 `json:"critical_points"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "x^2 + 5", view.F.Text)
	assert.Equal(t, []float64{0}, view.CriticalPoints)
}

func TestSchema(t *testing.T) {
	out := execute(t, "schema")
	assert.True(t, json.Valid([]byte(out)))
}
