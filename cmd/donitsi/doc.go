/*
Command donitsi runs donitsi programs.

Usage:

	donitsi [flags] run   <file|source>
	donitsi [flags] ast   <file|source>
	donitsi [flags] dump  <file|source>
	donitsi [flags] build [-o image] <file|source>
	donitsi [flags] exec  <image>
	donitsi [flags] repl  [init-file]

If the program argument names an existing file, the file is read. Otherwise
the argument itself is taken as the program text.

Flags are

	-config  configuration file (default "donitsi.toml")
	-trace   root trace level [Debug|Info|Error]
	-v       show every action dispatched

The host functions available to programs are "print" and "info". With host
fallback switched on in the configuration (the default), calls to any other
unbound function are reported as host calls.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'donitsi.cli'
func tracer() tracing.Trace {
	return tracing.Select("donitsi.cli")
}
