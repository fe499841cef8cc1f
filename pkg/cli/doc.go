/*
Package cli provides shared helpers for the minerva command: typed
command and configuration errors, and signal handling for graceful
shutdown.

Error Types:

Commands wrap failures in typed errors so exit paths can distinguish
configuration problems from runtime failures:

	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError("", err.Error())
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown

or block until a signal arrives:

	sig := <-cli.WaitForShutdown()
*/
package cli
