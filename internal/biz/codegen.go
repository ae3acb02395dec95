package biz

import (
	"context"
	"errors"
	"fmt"

	"link-shortener/internal/conf"
	"link-shortener/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// maxGenerateAttempts bounds random code generation before giving up.
const maxGenerateAttempts = 5

// ClaimFunc attempts to take ownership of code, typically by inserting the
// link. It returns domain.ErrAliasInUse when the code is already taken.
type ClaimFunc func(ctx context.Context, code domain.ShortCode) error

// CodeGenerator produces and reserves short codes.
type CodeGenerator struct {
	length   int
	generate func(alphabet string, size int) (string, error)
}

// NewCodeGenerator creates a CodeGenerator with the configured code length.
func NewCodeGenerator(c *conf.Shortener) *CodeGenerator {
	length := domain.DefaultShortCodeLength
	if c != nil && c.CodeLength >= domain.MinCustomCodeLength && c.CodeLength <= domain.MaxCustomCodeLength {
		length = c.CodeLength
	}
	return &CodeGenerator{
		length:   length,
		generate: gonanoid.Generate,
	}
}

// Generate returns a random code drawn from the alphanumeric alphabet.
func (g *CodeGenerator) Generate() (domain.ShortCode, error) {
	id, err := g.generate(domain.CodeAlphabet, g.length)
	if err != nil {
		return domain.ShortCode{}, fmt.Errorf("generate short code: %w", err)
	}
	return domain.NewShortCode(id)
}

// Reserve claims alias when one is given, or up to maxGenerateAttempts random
// codes otherwise. A taken alias fails with domain.ErrAliasInUse; exhausting
// the random attempts fails with domain.ErrCodeSpaceExhausted.
func (g *CodeGenerator) Reserve(ctx context.Context, alias string, claim ClaimFunc) (domain.ShortCode, error) {
	if alias != "" {
		code, err := domain.NewShortCode(alias)
		if err != nil {
			return domain.ShortCode{}, err
		}
		if err := claim(ctx, code); err != nil {
			return domain.ShortCode{}, err
		}
		return code, nil
	}

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := g.Generate()
		if err != nil {
			return domain.ShortCode{}, err
		}

		err = claim(ctx, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, domain.ErrAliasInUse) {
			return domain.ShortCode{}, err
		}
	}

	return domain.ShortCode{}, domain.ErrCodeSpaceExhausted
}
