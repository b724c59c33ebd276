//go:build notls

package tlsio

// Built with the notls tag: every TLS entry point reports ErrNotSupported
// without touching the filesystem or the network.
const tlsSupported = false
