package tlsio

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"os"

	"github.com/bifurcation/mint"
	"github.com/brickingsoft/errors"
)

// Credential holds the server certificate chain and private key a listening
// endpoint presents, plus the Diffie-Hellman parameters bound to it. It
// stays valid until Release; releasing twice is an error.
type Credential struct {
	chain    []*x509.Certificate
	key      crypto.Signer
	dh       *DHParams
	released bool
}

// LoadCredential reads a PEM certificate chain and a PEM private key into a
// fresh credential. The leaf certificate must come first in the chain file.
func LoadCredential(certPath string, keyPath string) (*Credential, error) {
	if !tlsSupported {
		return nil, errors.From(ErrNotSupported)
	}
	chain, chainErr := readCertificateChain(certPath)
	if chainErr != nil {
		return nil, errors.From(ErrCredential, errors.WithWrap(chainErr))
	}
	key, keyErr := readPrivateKey(keyPath)
	if keyErr != nil {
		return nil, errors.From(ErrCredential, errors.WithWrap(keyErr))
	}
	logger.Debug().Str("cert", certPath).Int("chain", len(chain)).Msg("credential loaded")
	return &Credential{chain: chain, key: key}, nil
}

// Release frees the certificate material and any bound DH parameters
// together. The credential is unusable afterwards.
func (cred *Credential) Release() error {
	if cred.released {
		return errors.From(ErrReleased)
	}
	cred.released = true
	cred.chain = nil
	cred.key = nil
	cred.dh = nil
	return nil
}

// certificate shapes the credential for the protocol engine.
func (cred *Credential) certificate() (*mint.Certificate, error) {
	if cred.released {
		return nil, errors.From(ErrReleased)
	}
	return &mint.Certificate{
		Chain:      cred.chain,
		PrivateKey: cred.key,
	}, nil
}

func readCertificateChain(path string) ([]*x509.Certificate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var chain []*x509.Certificate
	for len(raw) > 0 {
		var block *pem.Block
		block, raw = pem.Decode(raw)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, certErr := x509.ParseCertificate(block.Bytes)
		if certErr != nil {
			return nil, certErr
		}
		chain = append(chain, cert)
	}
	if len(chain) == 0 {
		return nil, errors.New("no certificate found in " + path)
	}
	return chain, nil
}

func readPrivateKey(path string) (crypto.Signer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	for len(raw) > 0 {
		var block *pem.Block
		block, raw = pem.Decode(raw)
		if block == nil {
			break
		}
		var (
			key    any
			keyErr error
		)
		switch block.Type {
		case "RSA PRIVATE KEY":
			key, keyErr = x509.ParsePKCS1PrivateKey(block.Bytes)
		case "EC PRIVATE KEY":
			key, keyErr = x509.ParseECPrivateKey(block.Bytes)
		case "PRIVATE KEY":
			key, keyErr = x509.ParsePKCS8PrivateKey(block.Bytes)
		default:
			continue
		}
		if keyErr != nil {
			return nil, keyErr
		}
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, errors.New("private key in " + path + " cannot sign")
		}
		return signer, nil
	}
	return nil, errors.New("no private key found in " + path)
}
