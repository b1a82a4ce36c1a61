// Package profile provides optional runtime profiling for ftdr.
//
// Profiling is built on [github.com/pkg/profile] and compiled in only with
// the "pprof" build tag:
//
//	go build -tags pprof -o ftdr .
//
// Without the tag, [Config.Start] returns a no-op and [Modes] is empty.
//
// # Modes
//
// With the tag, [Modes] lists the supported modes: allocs, block, clock,
// cpu, goroutine, heap, mem, mutex, thread and trace. The CLI exposes them
// as --pprof-mode; --pprof-dir overrides the output directory, which
// defaults to the "pprof" directory under the ftdr cache directory.
//
//	ftdr --pprof-mode cpu resolve page.ftd
//	go tool pprof -http=: ~/.cache/ftdr/pprof/cpu.pprof
//
// Resolving large module graphs is dominated by parsing and expression
// compilation, so cpu and allocs are the most useful modes; trace shows
// the time the driver spends waiting on collaborators between suspensions.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
