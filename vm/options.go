package vm

import (
	"github.com/npillmayer/schuko/gconf"
)

// Option configures a VM.
type Option func(*VM)

// DefaultMaxFrames is the call depth limit if none is configured.
const DefaultMaxFrames = 256

// HostSymbols pre-binds names as host functions in the global scope.
// Calling one of them queues a Call action.
func HostSymbols(names ...string) Option {
	return func(vm *VM) {
		vm.hostNames = append(vm.hostNames, names...)
	}
}

// HostFallback makes calls to unbound identifiers host calls instead of
// runtime errors.
func HostFallback(on bool) Option {
	return func(vm *VM) {
		vm.hostFallback = on
	}
}

// MaxFrames limits the depth of the call stack. Values < 1 are ignored.
func MaxFrames(n int) Option {
	return func(vm *VM) {
		if n > 0 {
			vm.maxFrames = n
		}
	}
}

// ConfiguredOptions derives VM options from the global configuration
// (keys "vm.maxframes" and "vm.hostfallback").
func ConfiguredOptions() []Option {
	var opts []Option
	if gconf.IsSet("vm.maxframes") {
		opts = append(opts, MaxFrames(gconf.GetInt("vm.maxframes")))
	}
	if gconf.IsSet("vm.hostfallback") {
		opts = append(opts, HostFallback(gconf.GetBool("vm.hostfallback")))
	}
	return opts
}
