// Package cli contains the command line interface for ftdr.
//
// # Usage
//
//	ftdr [flags] resolve [--format yaml|json] <file|->
//	ftdr [flags] check [--no-warnings] <file|->
//	ftdr [flags] init [--force]
//
// resolve prints the compiled document and logs diagnostics; check prints
// the diagnostics only. Both exit with status 1 if any diagnostic is an
// error. Imports are searched in the --path roots, then the directory of
// the source file, then the roots listed in FTDR_PATH. Foreign variables
// are given with --var name=value, where value is YAML.
//
// # Configuration
//
// Flag defaults are read from config.yaml (or config.json) in the ftdr
// configuration directory; see [loadYAML] for the format. init writes the
// current flag values to that file.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, Kitchen, ...)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output (disable with --no-log-pretty)
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o ftdr .
//
// It is then configured with:
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default: ~/.cache/ftdr/pprof)
package cli
