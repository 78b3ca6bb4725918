// Package config describes the runtime configuration of the fieldsync client.
//
// # Sources
//
// Values come from, highest priority first: command-line flags, FIELDSYNC_*
// environment variables (optionally seeded from a .env file), the JSON file
// named by --config, and the built-in defaults. Flags are parsed with kong;
// JSON keys are the flag names in snake case:
//
//	{
//	  "db_path": "fieldsync.db",
//	  "probe_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "save_delay": "2s"
//	}
//
// An empty probe_addr selects manual connectivity: the REPL online and
// offline commands flip the state.
package config
