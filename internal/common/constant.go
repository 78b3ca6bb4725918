// Package common contains shared constants and sentinel errors used across
// fieldsync components.
package common

// Record kinds. The kind selects the queue partition and the ledger bucket a
// payload belongs to.
const (
	KindHarvest  = "harvest"
	KindSettings = "settings"
)

// SettingsKey is the record key of the single platform-settings record.
const SettingsKey = "platform"
