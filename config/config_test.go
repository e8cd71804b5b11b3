package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/gconf"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
)

const sample = `
interactive = true

[tracelevel]
root = "Info"
"donitsi.vm" = "Debug"

[vm]
maxframes = 64
hostfallback = false

[repl]
prompt = "> "
`

func TestDefaults(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.config")
	defer teardown()
	//
	conf := Default()
	if conf.GetString("tracing.adapter") != "go" {
		t.Errorf("expected default tracing adapter to be 'go', is %q", conf.GetString("tracing.adapter"))
	}
	if conf.GetInt("vm.maxframes") != 256 {
		t.Errorf("expected default frame limit of 256, is %d", conf.GetInt("vm.maxframes"))
	}
	if !conf.GetBool("vm.hostfallback") {
		t.Errorf("expected host fallback to be on by default")
	}
	if conf.IsSet("no.such.key") || conf.GetString("no.such.key") != "" || conf.IsInteractive() {
		t.Errorf("unexpected value for unset key")
	}
}

func TestLoad(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.config")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "donitsi.toml")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}
	conf, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if conf.GetString("tracelevel.donitsi.vm") != "Debug" {
		t.Errorf("expected nested key to be flattened, have %q", conf.GetString("tracelevel.donitsi.vm"))
	}
	if conf.GetInt("vm.maxframes") != 64 {
		t.Errorf("expected frame limit of 64, is %d", conf.GetInt("vm.maxframes"))
	}
	if conf.GetBool("vm.hostfallback") {
		t.Errorf("expected host fallback to be switched off")
	}
	if conf.GetString("repl.prompt") != "> " || conf.GetString("repl.history") != "" {
		t.Errorf("unexpected REPL settings")
	}
	if !conf.IsInteractive() {
		t.Errorf("expected configuration to be interactive")
	}
	if conf.GetString("vm.maxframes") != "64" {
		t.Errorf("expected integer to be readable as string, have %q", conf.GetString("vm.maxframes"))
	}
}

func TestLoadMissingAndBroken(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.config")
	defer teardown()
	//
	dir := t.TempDir()
	conf, err := Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("missing configuration file should not be an error: %v", err)
	}
	if conf.GetString("tracelevel.root") != "Error" {
		t.Errorf("expected defaults for missing configuration file")
	}
	broken := filepath.Join(dir, "broken.toml")
	if err := os.WriteFile(broken, []byte("[vm\nmaxframes = "), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(broken); err == nil {
		t.Errorf("expected broken configuration file to be rejected")
	}
}

func TestGlobalConfiguration(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "donitsi.config")
	defer teardown()
	//
	conf := Default()
	conf.Set("vm.maxframes", "12")
	gconf.Initialize(conf)
	defer gconf.Initialize(testconfig.Conf{})
	if gconf.GetInt("vm.maxframes") != 12 {
		t.Errorf("expected global configuration to answer 12, is %d", gconf.GetInt("vm.maxframes"))
	}
}

func TestSetupTracing(t *testing.T) {
	conf := testconfig.Conf{
		"tracing.adapter":       "go",
		"tracelevel.root":       "Error",
		"tracelevel.donitsi.vm": "Debug",
	}
	if err := SetupTracing(conf); err != nil {
		t.Fatal(err)
	}
	defer trace2go.Teardown()
	if l := tracing.Select("donitsi.vm").GetTraceLevel(); l != tracing.LevelDebug {
		t.Errorf("expected tracer donitsi.vm to trace at level Debug, is %s", l)
	}
}
