// Package audit provides the structured security-event model and the async
// dispatch path between the engine and caller-supplied sinks.
//
// # Delivery semantics
//
// The Dispatcher is best-effort: events are buffered and either dropped or
// delivered with backpressure depending on configuration. Authentication
// decisions never block on a slow sink.
//
// # What this package must NOT do
//
//   - Make authentication or authorization decisions.
//   - Perform network I/O itself (sinks own their transport).
//   - Be imported outside the authcore module.
package audit
