/*
Package donitsi is a small scripting-language engine.

Donitsi tokenizes source text, parses it into an abstract syntax tree, lowers
the tree into linear bytecode and executes the bytecode on a stack machine.
The machine never performs I/O itself: every host-visible effect is queued as
an action, which an embedding host (a GUI event loop, a CLI) drains and
dispatches. Package structure is as follows:

■ scanner: Package scanner defines a tokenizer interface and an adapter for the
lexmachine scanner generator.

■ lexer: Package lexer contains the token categories and lexical rules of the language.

■ ast and parser: A recursive-descent parser producing AST nodes.

■ compiler and bytecode: Lowering of AST nodes into bytecode blocks, a constant pool and
an identifier table; bytecode images.

■ runtime and vm: Values, scopes and frames, and the resumable virtual machine.

■ host: Helpers for embedding hosts, i.e. source loading and action dispatch.

■ config: TOML configuration files and tracing setup.

Command donitsi (in cmd/donitsi) runs programs and offers an interactive REPL.

The base package contains data types which are used throughout all the other packages.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package donitsi
