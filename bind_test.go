package tlsio

import (
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBindPlain(t *testing.T) {
	require.NoError(t, Startup())
	defer func() { _ = Shutdown() }()

	ep, err := Bind("127.0.0.1", 0)
	require.NoError(t, err)
	defer func() { _ = ep.CloseSocket() }()

	require.False(t, ep.Secure())
	require.Nil(t, ep.Credential())
	addr, ok := ep.Addr().(*net.TCPAddr)
	require.True(t, ok)
	require.NotZero(t, addr.Port)
	require.NoError(t, ep.Teardown())
	require.True(t, IsClosed(ep.Teardown()))
}

func TestBindRequiresStartup(t *testing.T) {
	was := initialized.Load()
	initialized.Store(false)
	defer initialized.Store(was)

	_, err := Bind("127.0.0.1", 0)
	require.True(t, IsNotInitialized(err))
	_, err = BindSecure("127.0.0.1", 0, "cert.pem", "key.pem")
	require.True(t, IsNotInitialized(err))
}

func TestBindSecure(t *testing.T) {
	require.NoError(t, Startup())
	defer func() { _ = Shutdown() }()

	certPath, keyPath := selfSignedPEM(t, t.TempDir())
	ep, err := BindSecure("127.0.0.1", 0, certPath, keyPath, WithDHBits(minDHBits))
	require.NoError(t, err)
	defer func() { _ = ep.CloseSocket() }()

	require.True(t, ep.Secure())
	require.NotNil(t, ep.Credential())
	require.NotNil(t, ep.Credential().DH())
	require.Equal(t, minDHBits, ep.Credential().DH().Bits)

	require.NoError(t, ep.Teardown())
	// teardown released the credential but the socket still listens
	conn, dialErr := net.Dial("tcp", ep.Addr().String())
	require.NoError(t, dialErr)
	_ = conn.Close()
}

func TestBindSecureWildcard(t *testing.T) {
	require.NoError(t, Startup())
	defer func() { _ = Shutdown() }()

	certPath, keyPath := selfSignedPEM(t, t.TempDir())
	ep, err := BindSecure("*", 0, certPath, keyPath, WithDHBits(minDHBits))
	require.NoError(t, err)
	defer func() { _ = ep.CloseSocket() }()
	addr, ok := ep.Addr().(*net.TCPAddr)
	require.True(t, ok)
	require.True(t, addr.IP.IsUnspecified())
}

func TestBindSecureBadAddressFailsBeforeCredentials(t *testing.T) {
	require.NoError(t, Startup())
	defer func() { _ = Shutdown() }()

	// the credential paths do not exist; a bind classification proves the
	// address was rejected before any file was opened
	_, err := BindSecure("no.such.literal", 443, "missing-cert.pem", "missing-key.pem")
	require.True(t, IsBind(err))
	require.False(t, IsCredential(err))
}

func TestBindSecureMissingCertificate(t *testing.T) {
	require.NoError(t, Startup())
	defer func() { _ = Shutdown() }()

	dir := t.TempDir()
	_, err := BindSecure("127.0.0.1", 0, filepath.Join(dir, "nope.pem"), filepath.Join(dir, "nope.key"))
	require.True(t, IsCredential(err))
}
