// Minerva is an AI governance engine for home healthcare agent systems.
//
// It sits between autonomous care agents and the systems they act on,
// providing:
//   - Role-based access control over agent actions and patient records
//   - Risk-tiered gates with human approval workflows
//   - An append-only audit trail with configurable retention
//   - Confidence-based fallback and human escalation
//   - Demographic bias monitoring with compliance events
//
// Usage:
//
//	# Start the governance server with default configuration
//	minerva run
//
//	# Start with a custom configuration file
//	minerva run --config /etc/minerva/config.yaml
//
//	# Validate a configuration file without starting
//	minerva validate --config /etc/minerva/config.yaml
//
//	# Show version information
//	minerva version
package main

func main() {
	Execute()
}
