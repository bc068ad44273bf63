package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/horologe/pkg/config"
)

// run executes the command tree with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestGoingCommand(t *testing.T) {
	out, _, err := run(t, "going", "--limit", "3")
	if err != nil {
		t.Fatalf("going: %v", err)
	}
	if !strings.Contains(out, "escape wheel 60 s, minute wheel 3600 s") {
		t.Errorf("missing timing header:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 3 {
		t.Fatalf("too few lines:\n%s", out)
	}
	// header line, column titles, then the best train
	if !strings.Contains(lines[2], "96/10 75/12") {
		t.Errorf("best train = %q, want 96/10 75/12", lines[2])
	}
	if !strings.Contains(out, "more)") {
		t.Errorf("expected a count of unlisted trains:\n%s", out)
	}
}

func TestGoingCommandFlags(t *testing.T) {
	out, _, err := run(t, "going", "--escapement-teeth", "40", "--limit", "1")
	if err != nil {
		t.Fatalf("going: %v", err)
	}
	if !strings.Contains(out, "escape wheel 80 s, minute wheel 3600 s") {
		t.Errorf("flags should change the escapement time:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 3 || strings.Count(lines[2], "/") != 2 {
		t.Fatalf("expected a two stage train:\n%s", out)
	}
}

func TestGoingCommandExhausted(t *testing.T) {
	_, _, err := run(t, "going", "--tolerance", "-1")
	if err == nil {
		t.Fatal("expected an error for a negative tolerance")
	}
}

func TestPowerCommand(t *testing.T) {
	out, _, err := run(t, "power", "--turns", "10", "--runtime-hours", "25", "--limit", "1")
	if err != nil {
		t.Fatalf("power: %v", err)
	}
	if !strings.Contains(out, "desired ratio 2.5000") {
		t.Errorf("missing desired ratio:\n%s", out)
	}
	if !strings.Contains(out, "25/10") {
		t.Errorf("expected the 25/10 train:\n%s", out)
	}

	direct, _, err := run(t, "power", "--ratio", "2.5", "--limit", "1")
	if err != nil {
		t.Fatalf("power --ratio: %v", err)
	}
	if !strings.Contains(direct, "25/10") {
		t.Errorf("--ratio 2.5 should give the same train:\n%s", direct)
	}
}

func TestEscapementCommand(t *testing.T) {
	out, _, err := run(t, "escapement", "--teeth", "40", "--diameter", "80", "--outline")
	if err != nil {
		t.Fatalf("escapement: %v", err)
	}
	for _, want := range []string{"deadbeat", "40", "80.00 mm", "anchor outline:", "wheel outline:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEscapementCommandRejectsRecoil(t *testing.T) {
	_, _, err := run(t, "escapement", "--family", "recoil")
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported family error, got %v", err)
	}
}

func TestProfileCommand(t *testing.T) {
	out, _, err := run(t, "profile", "96", "10", "--outline")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if !strings.Contains(out, "wheel(96 teeth, m=1.000)") {
		t.Errorf("missing profile line:\n%s", out)
	}
	if !strings.Contains(out, "pitch diameter  96.000 mm") {
		t.Errorf("missing pitch diameter:\n%s", out)
	}
	if !strings.Contains(out, "outline:") {
		t.Errorf("missing outline line:\n%s", out)
	}

	pinion, _, err := run(t, "profile", "10", "96", "--pinion", "-m", "0.85")
	if err != nil {
		t.Fatalf("profile --pinion: %v", err)
	}
	if !strings.Contains(pinion, "pinion(10 teeth, m=0.850)") {
		t.Errorf("missing pinion profile:\n%s", pinion)
	}
}

func TestProfileCommandArgs(t *testing.T) {
	if _, _, err := run(t, "profile", "96"); err == nil {
		t.Error("expected an error for a missing partner count")
	}
	if _, _, err := run(t, "profile", "ninety", "10"); err == nil {
		t.Error("expected an error for a non-numeric tooth count")
	}
	if _, _, err := run(t, "profile", "96", "0"); err == nil {
		t.Error("expected an error for a toothless partner")
	}
}

func TestEvalCommand(t *testing.T) {
	for _, file := range []string{"../../examples/regulator.horo", "../../examples/regulator.toml"} {
		t.Run(filepath.Ext(file), func(t *testing.T) {
			out, errOut, err := run(t, "eval", file, "--outlines")
			if err != nil {
				t.Fatalf("eval: %v\n%s", err, errOut)
			}
			for _, want := range []string{"regulator", "96/10 75/12", "25/10", "part regulator/"} {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			if strings.Contains(errOut, "warning:") {
				t.Errorf("unexpected warnings:\n%s", errOut)
			}
		})
	}
}

func TestEvalCommandErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.horo")
	if err := os.WriteFile(bad, []byte("(pendulum :perod 2)"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, errOut, err := run(t, "eval", bad)
	if err == nil {
		t.Fatal("expected evaluation to fail")
	}
	if !strings.Contains(err.Error(), "1 error(s)") {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(errOut, "unknown keyword :perod") {
		t.Errorf("stderr should explain the failure:\n%s", errOut)
	}

	if _, _, err := run(t, "eval", filepath.Join(dir, "missing.horo")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestInitCommandRoundTrips(t *testing.T) {
	out, _, err := run(t, "init", "--name", "bracket", "--description", "bracket clock")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	m, err := config.ParseManifest([]byte(out), config.Default())
	if err != nil {
		t.Fatalf("init output does not parse: %v\n%s", err, out)
	}
	if m.Movement.Name != "bracket" || m.Movement.Description != "bracket clock" {
		t.Errorf("movement = %+v", m.Movement)
	}
	if !m.HasPower {
		t.Error("init should write a [power] table")
	}
	if m.Going != config.Default().Going {
		t.Errorf("going = %+v, want defaults", m.Going)
	}
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "horologe.toml")
	if err := os.WriteFile(path, []byte("[escapement]\nteeth = 40\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "--config", path, "escapement")
	if err != nil {
		t.Fatalf("escapement: %v", err)
	}
	if !strings.Contains(out, "teeth") || !strings.Contains(out, "40") {
		t.Errorf("config file teeth not used:\n%s", out)
	}

	// Flags beat the config file.
	out, _, err = run(t, "--config", path, "escapement", "--teeth", "36")
	if err != nil {
		t.Fatalf("escapement: %v", err)
	}
	if !strings.Contains(out, "36") {
		t.Errorf("flag teeth not used:\n%s", out)
	}

	if _, _, err := run(t, "--config", filepath.Join(t.TempDir(), "none.toml"), "going"); err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("HOROLOGE_POWER_TURNS", "20")
	t.Setenv("HOROLOGE_POWER_RUNTIME_HOURS", "25")

	out, _, err := run(t, "power", "--limit", "1")
	if err != nil {
		t.Fatalf("power: %v", err)
	}
	if !strings.Contains(out, "desired ratio 1.2500") {
		t.Errorf("environment should set the ratio:\n%s", out)
	}
}

func TestVerboseLogsToStderr(t *testing.T) {
	_, errOut, err := run(t, "-v", "going", "--limit", "1")
	if err != nil {
		t.Fatalf("going: %v", err)
	}
	if !strings.Contains(errOut, "going train solved") {
		t.Errorf("expected solver logs on stderr:\n%s", errOut)
	}
}
