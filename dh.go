package tlsio

import (
	"crypto/rand"
	"math/big"

	"github.com/brickingsoft/errors"
)

// DefaultDHBits is the prime length GenerateDH uses when the caller does
// not pick one.
const DefaultDHBits = 2048

// minDHBits guards against degenerate groups; anything below it is refused.
const minDHBits = 128

var bigOne = big.NewInt(1)

// DHParams is a finite-field Diffie-Hellman group: a safe prime and its
// generator.
type DHParams struct {
	P    *big.Int
	G    *big.Int
	Bits int
}

// GenerateDH binds freshly generated Diffie-Hellman parameters of the given
// prime length to the credential, replacing any previous ones. A
// non-positive length selects DefaultDHBits.
func (cred *Credential) GenerateDH(bits int) error {
	if !tlsSupported {
		return errors.From(ErrNotSupported)
	}
	if cred.released {
		return errors.From(ErrReleased)
	}
	if bits <= 0 {
		bits = DefaultDHBits
	}
	if bits < minDHBits {
		return errors.From(ErrCrypto, errors.WithWrap(errors.New("dh prime length is too small")))
	}
	params, err := generateDHParams(bits)
	if err != nil {
		return errors.From(ErrCrypto, errors.WithWrap(err))
	}
	cred.dh = params
	logger.Debug().Int("bits", bits).Msg("dh parameters generated")
	return nil
}

// DH returns the parameters bound by GenerateDH, or nil.
func (cred *Credential) DH() *DHParams {
	return cred.dh
}

// generateDHParams searches for a safe prime p = 2q+1 with q prime and uses
// 2 as the generator, the conventional group shape for ephemeral DH.
func generateDHParams(bits int) (*DHParams, error) {
	for {
		q, err := rand.Prime(rand.Reader, bits-1)
		if err != nil {
			return nil, err
		}
		p := new(big.Int).Lsh(q, 1)
		p.Add(p, bigOne)
		if p.BitLen() != bits {
			continue
		}
		if !p.ProbablyPrime(20) {
			continue
		}
		return &DHParams{P: p, G: big.NewInt(2), Bits: bits}, nil
	}
}
