package links

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
)

const (
	// Alphabet is base57: alphanumerics without 0, 1, I, O and l.
	Alphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

	CodeLength    = 8
	EditKeyLength = 22
)

// CodeGenerator generates random identifiers.
type CodeGenerator func() string

// NewCodeGenerator returns a generator of short codes.
func NewCodeGenerator() (CodeGenerator, error) {
	return newGenerator(CodeLength)
}

// NewEditKeyGenerator returns a generator of edit keys.
func NewEditKeyGenerator() (CodeGenerator, error) {
	return newGenerator(EditKeyLength)
}

func newGenerator(length int) (CodeGenerator, error) {
	gen, err := nanoid.CustomASCII(Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("create generator of length %d: %w", length, err)
	}

	return CodeGenerator(gen), nil
}
