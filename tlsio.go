// Package tlsio is a server side TLS session layer for non-blocking sockets.
//
// It sits between a non-blocking TCP listener and a connection handler: it
// binds listening sockets to X.509 credentials, establishes per-connection
// TLS sessions and performs encrypted record io, all without ever truly
// blocking the calling flow. Every would-block condition on the underlying
// socket is surfaced through a caller supplied suspension hook, so sessions
// can be multiplexed over any poll style event loop, or simply over one
// goroutine per connection using the built-in poll waits.
package tlsio
