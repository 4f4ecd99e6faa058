// Package notifications delivers pipeline events to ntfy.
//
// The service publishes to the topic configured in config.toml and degrades
// to a no-op when no topic is set. Each event kind can be switched off in the
// [notifications] section; suppressed events return nil without a request.
package notifications
