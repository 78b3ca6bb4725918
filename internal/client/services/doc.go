// Package services implements the client flows on top of drafts and
// submission controllers: the harvest entry form, the platform settings
// editor, and the simulated save collaborator both of them submit to.
package services
