/*
Package config reads donitsi configuration files.

Configuration files are in TOML format. Tables are flattened into dotted keys,
thus

	[tracelevel]
	root = "Info"
	"donitsi.vm" = "Debug"

	[vm]
	maxframes = 64

yields keys "tracelevel.root", "tracelevel.donitsi.vm" and "vm.maxframes".
A Conf implements schuko.Configuration and may be installed as the global
configuration with gconf.Initialize.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/npillmayer/schuko"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
)

// tracer traces with key 'donitsi.config'.
func tracer() tracing.Trace {
	return tracing.Select("donitsi.config")
}

// Defaults holds the default configuration values.
var Defaults = map[string]interface{}{
	"tracing.adapter":    "go",
	"tracelevel.root":    "Error",
	"tracinginterpreter": "Error",
	"vm.maxframes":       256,
	"vm.hostfallback":    true,
	"repl.prompt":        "donitsi> ",
	"repl.history":       "",
}

// Conf is a flat key-value configuration.
type Conf struct {
	values map[string]interface{}
}

var _ schuko.Configuration = &Conf{}

// Default returns a configuration holding the default values only.
func Default() *Conf {
	conf := &Conf{values: make(map[string]interface{})}
	conf.InitDefaults()
	return conf
}

// Load reads a TOML configuration file. Values not set in the file are taken
// from Defaults. A missing file is not an error.
func Load(path string) (*Conf, error) {
	conf := Default()
	if path == "" {
		return conf, nil
	}
	var tree map[string]interface{}
	if _, err := toml.DecodeFile(path, &tree); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			tracer().Infof("no configuration file %s, using defaults", path)
			return conf, nil
		}
		return nil, fmt.Errorf("reading configuration %s: %w", path, err)
	}
	flatten("", tree, conf.values)
	tracer().Infof("read configuration from %s", path)
	return conf, nil
}

func flatten(prefix string, tree map[string]interface{}, into map[string]interface{}) {
	for k, v := range tree {
		if prefix != "" {
			k = prefix + "." + k
		}
		if sub, ok := v.(map[string]interface{}); ok {
			flatten(k, sub, into)
			continue
		}
		into[k] = v
	}
}

// InitDefaults sets all defaults not yet set.
func (c *Conf) InitDefaults() {
	for k, v := range Defaults {
		if _, ok := c.values[k]; !ok {
			c.values[k] = v
		}
	}
}

// Set sets a value.
func (c *Conf) Set(key string, value interface{}) {
	c.values[key] = value
}

// IsSet is true if key has a value.
func (c *Conf) IsSet(key string) bool {
	_, ok := c.values[key]
	return ok
}

// GetString returns a value as a string. Unset keys yield "".
func (c *Conf) GetString(key string) string {
	v, ok := c.values[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// GetInt returns a value as an int. Unset keys and non-numeric values yield 0.
func (c *Conf) GetInt(key string) int {
	switch v := c.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			tracer().Errorf("configuration key %s: %v", key, err)
		}
		return n
	}
	return 0
}

// GetBool returns a value as a bool. Unset keys yield false.
func (c *Conf) GetBool(key string) bool {
	switch v := c.values[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}

// IsInteractive is true for configurations of interactive sessions.
func (c *Conf) IsInteractive() bool {
	return c.GetBool("interactive")
}

// SetupTracing installs trace2go as the tracing backend, configured from
// conf. The log adapter is registered under key "go".
func SetupTracing(conf schuko.Configuration) error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	if err := trace2go.ConfigureRoot(conf, "tracelevel", trace2go.ReplaceTracers(true)); err != nil {
		return err
	}
	tracing.SetTraceSelector(trace2go.Selector())
	return nil
}
