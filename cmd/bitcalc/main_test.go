package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zephyrtronium/bitcalc"
)

// execute runs bitcalc with the given stdin and arguments.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, log bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&log)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), log.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEvalArgs(t *testing.T) {
	out, _, err := execute(t, "", "eval", "1.1;", "x = 1; x + 1;")
	require.NoError(t, err)
	require.Equal(t, "> 1.5\n> 1\n> 2\n", out)
}

func TestEvalStdin(t *testing.T) {
	out, _, err := execute(t, "11;\n10;\n", "eval")
	require.NoError(t, err)
	require.Equal(t, "> 3\n> 2\n", out)

	out, _, err = execute(t, "'''nothing here'''", "eval")
	require.NoError(t, err)
	require.Equal(t, "Empty\n", out)
}

func TestEvalFiles(t *testing.T) {
	path := writeFile(t, "one.bc", "'''one'''\n1;\n")
	out, _, err := execute(t, "11;", "eval", "10;", "--in", path, "--in", "-")
	require.NoError(t, err)
	require.Equal(t, "> 1\n> 3\n> 2\n", out)

	out, _, err = execute(t, "11;", "eval", "--in", "-", "--in", "-")
	require.NoError(t, err)
	require.Equal(t, "> 3\n> 3\n", out)

	_, _, err = execute(t, "", "eval", "--in", filepath.Join(t.TempDir(), "missing.bc"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "reading")
}

func TestEvalOrder(t *testing.T) {
	out, _, err := execute(t, "", "eval", "--jobs", "4", "1;", "10;", "11;", "100;", "101;", "110;")
	require.NoError(t, err)
	require.Equal(t, "> 1\n> 2\n> 3\n> 4\n> 5\n> 6\n", out)
}

func TestGiven(t *testing.T) {
	out, _, err := execute(t, "", "eval", "--given", "x = 1.1", "--given", "y=-1", "x * y;")
	require.NoError(t, err)
	require.Equal(t, "> -1.5\n", out)

	bad := []string{"x", "x=2", "a+b=1", "x=1+1"}
	for _, def := range bad {
		_, _, err := execute(t, "", "eval", "--given", def, "1;")
		assert.Error(t, err, "definition %q", def)
	}
}

func TestBackendFlags(t *testing.T) {
	out, _, err := execute(t, "", "eval", "--backend", "float64", "1/11;")
	require.NoError(t, err)
	require.Equal(t, "> 0.3333333333333333\n", out)

	out, _, err = execute(t, "", "eval", "--prec", "10", "1/11;")
	require.NoError(t, err)
	require.Equal(t, "> 0.3333\n", out)

	_, _, err = execute(t, "", "eval", "--backend", "decimal", "1;")
	require.Error(t, err)
}

func TestStrict(t *testing.T) {
	out, log, err := execute(t, "", "eval", "1;1")
	require.NoError(t, err)
	require.Equal(t, "> 1\n", out)
	require.Contains(t, log, "input not fully parsed")

	_, _, err = execute(t, "", "eval", "--strict", "1;1")
	require.Error(t, err)
	var pe *bitcalc.ParseError
	require.True(t, errors.As(err, &pe), "error %v is not a ParseError", err)
	require.Equal(t, 4, pe.Pos())
}

func TestMaxDepth(t *testing.T) {
	_, _, err := execute(t, "", "eval", "--max-depth", "2", "(((1)));")
	var de *bitcalc.DepthError
	require.True(t, errors.As(err, &de), "error %v is not a DepthError", err)

	_, _, err = execute(t, "", "eval", "--max-depth", "0", "1;")
	require.Error(t, err)
}

func TestTree(t *testing.T) {
	p, err := bitcalc.Parse("x = 1;")
	require.NoError(t, err)

	out, _, err := execute(t, "", "tree", "x = 1;")
	require.NoError(t, err)
	require.Equal(t, bitcalc.Render(p, bitcalc.ParseTree)+"\n", out)

	out, _, err = execute(t, "", "tree", "--format", "yaml", "x = 1;")
	require.NoError(t, err)
	require.Equal(t, bitcalc.Render(p, bitcalc.ParseTreeYAML)+"\n", out)
	require.Contains(t, out, "type: program")

	_, _, err = execute(t, "", "tree", "--format", "calculator", "1;")
	require.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	path := writeFile(t, "bitcalc.yaml", "backend: float64\ngiven:\n  - x=11\n")
	out, _, err := execute(t, "", "eval", "--config", path, "x / 1001;")
	require.NoError(t, err)
	require.Equal(t, "> 0.3333333333333333\n", out)

	// Flags override the file.
	out, _, err = execute(t, "", "eval", "--config", path, "--backend", "rat", "--prec", "10", "x / 1001;")
	require.NoError(t, err)
	require.Equal(t, "> 0.3333\n", out)

	_, _, err = execute(t, "", "eval", "--config", filepath.Join(t.TempDir(), "nope.yaml"), "1;")
	require.Error(t, err)
}

func TestEnv(t *testing.T) {
	t.Setenv("BITCALC_BACKEND", "float64")
	t.Setenv("BITCALC_GIVEN", "x=1 y=10")
	out, _, err := execute(t, "", "eval", "(x + y) / 1001;")
	require.NoError(t, err)
	require.Equal(t, "> 0.6\n", out)
}

func TestVerbose(t *testing.T) {
	_, log, err := execute(t, "", "eval", "1;")
	require.NoError(t, err)
	require.Empty(t, log)

	_, log, err = execute(t, "", "-v", "eval", "1;")
	require.NoError(t, err)
	require.Contains(t, log, "rendered")
	require.Contains(t, log, "argument 1")
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "bitcalc "+version), "version printed %q", out)
}

func testSession(t *testing.T) (*session, *bytes.Buffer) {
	t.Helper()
	a := &app{conf: viper.New(), log: zap.NewNop()}
	a.conf.Set("max-depth", 64)
	a.conf.Set("given", []string{"k=1"})
	s, err := a.settings()
	require.NoError(t, err)
	var out bytes.Buffer
	return newSession(&out, s), &out
}

func TestSession(t *testing.T) {
	s, out := testSession(t)
	steps := []struct {
		in   string
		want string
	}{
		{"x = 1.1;", "> 1.5\n"},
		{"x * 10;", "> 3\n"},
		{":vars", "k = 1\nx = 1.5\n"},
		{"1;\n1", "> 1\nerror: 5: cannot parse Expression: expected \";\" at end of input\n"},
		{"y;", "> error: undefined variable: \"y\"\n"},
		{":reset", "variables reset\n"},
		{":vars", "k = 1\n"},
		{":nope", "unknown command :nope, try :help\n"},
		{"'''a note\nthat ends here''' 1;", "> 1\n"},
	}
	for _, step := range steps {
		out.Reset()
		require.False(t, s.exec(step.in), "%q ended the session", step.in)
		assert.Equal(t, step.want, out.String(), "after %q", step.in)
	}
	require.True(t, s.exec(" :quit "))
}

func TestSessionTrees(t *testing.T) {
	s, out := testSession(t)
	require.False(t, s.exec(":tree"))
	require.Equal(t, "parse trees on\n", out.String())
	out.Reset()
	require.False(t, s.exec("1;"))
	p, err := bitcalc.Parse("1;")
	require.NoError(t, err)
	require.Equal(t, bitcalc.Render(p, bitcalc.ParseTree)+"\n> 1\n", out.String())
	out.Reset()
	require.False(t, s.exec(":tree"))
	require.Equal(t, "parse trees off\n", out.String())
}

func TestIncomplete(t *testing.T) {
	cases := []struct {
		src  string
		want bool
	}{
		{"", false},
		{"x = 1", true},
		{"x = 1;", false},
		{"1; 1 +", true},
		{"1 + 1;\n", false},
		{"1);", false},
		{":vars", false},
		{"'''a note", true},
		{"1; '''note", true},
		{"'''a note\nthat ends here''' 1;", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, incomplete(c.src), "%q", c.src)
	}
}
