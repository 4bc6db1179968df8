// Package events carries job lifecycle notifications from the task runner
// to interested handlers without the runner knowing who listens.
//
// The primary components are:
// - JobEvent: a terminal job transition
// - EventHandler: interface for components that react to events
// - EventEmitter: interface for components that publish events
package events
