//go:build !notls

package tlsio

const tlsSupported = true
