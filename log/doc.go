// Package log provides a simplified structured logging interface based on
// [log/slog].
//
// A [Logger] embeds [*slog.Logger] and adds a Trace level below Debug. The
// zero value is a valid logger that discards everything, so libraries can
// hold a Logger field without forcing callers to configure one.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("resolution started", slog.String("root", "index"))
//
// # Configuration
//
// Configure the logger using functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// # Package-Level Logger
//
// The package keeps a default logger writing to standard error. [Config]
// replaces its options, and the package-level functions ([Debug], [Info],
// [Warn], [Error] and their Context variants) log through it.
package log
