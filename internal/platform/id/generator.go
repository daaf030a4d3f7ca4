package id

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// Generator creates opaque IDs for leagues and picks.
type Generator interface {
	NewID() (string, error)
}

// UUIDGenerator issues random (v4) UUIDs.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return v.String(), nil
}

// JoinCodeLength is the length of a private league invite code.
const JoinCodeLength = 6

const joinCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CodeGenerator creates short invite codes.
type CodeGenerator interface {
	NewJoinCode() (string, error)
}

type RandomCodeGenerator struct{}

func NewRandomCodeGenerator() *RandomCodeGenerator {
	return &RandomCodeGenerator{}
}

// NewJoinCode returns JoinCodeLength upper-case alphanumerics.
func (g *RandomCodeGenerator) NewJoinCode() (string, error) {
	limit := big.NewInt(int64(len(joinCodeAlphabet)))
	out := make([]byte, JoinCodeLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		out[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(out), nil
}
