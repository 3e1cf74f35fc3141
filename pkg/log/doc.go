/*
Package log provides structured logging for the application master
using zerolog.

The package wraps zerolog to give component-scoped loggers with
configurable level and output format, initialized once via Init and
read from everywhere else through the package-level Logger or a
derived child logger.

# Usage

Initializing the logger:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Component loggers:

	engineLog := log.WithComponent("appstate")
	engineLog.Info().Msg("engine built")

	roleLog := log.WithRole("worker")
	roleLog.Warn().Int("requested", 3).Msg("review pass requested containers")

	containerLog := log.WithContainerID(containerID)
	containerLog.Error().Err(err).Msg("container start failed")

# Design

A single package-level zerolog.Logger is initialized once at process
start. Component loggers are child loggers created with With().Str(...)
rather than separate logger instances, so level filtering and output
configuration stay centralized. JSON output is used in production;
console output (zerolog.ConsoleWriter) is for local runs.
*/
package log
