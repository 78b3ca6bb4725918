// Package cli provides the fieldsync terminal client.
//
// It wires configuration, local storage, the connectivity signal, the
// offline queues and an interactive REPL. Two forms can be edited: a
// harvest entry and the platform settings. Submissions made while offline
// are queued and flushed once connectivity returns.
//
// Commands:
//   - repl (default) interactive session
//   - queue lists submissions waiting in the offline queue
//   - flush runs one flush pass
//   - ledger lists committed records
//
// Connectivity is either driven by a gRPC health probe (--probe-addr) or
// toggled by hand with the REPL's online and offline commands.
package cli
