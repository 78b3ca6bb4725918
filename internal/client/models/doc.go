// Package models defines the records edited through drafts: harvest entries
// and platform settings, together with their validation rules.
package models
