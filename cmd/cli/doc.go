// Package cli constructs the actions-audit command-line interface, wiring the
// audit Cobra command, the Viper configuration loader, and structured logging.
package cli
