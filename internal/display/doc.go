// Package display delivers routing decisions to the browser sessions that
// asked for them.
//
// Resolved screens are appended to a display stream and remembered as the
// session's current screen; unresolved tokens produce a notice on a separate
// stream. RedisDisplay implements both Displayer and Notifier on top of
// Redis Streams.
package display
