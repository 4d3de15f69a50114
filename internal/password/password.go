// Package password hashes and verifies user passwords. Hashing is CPU bound,
// so Pool caps how many hashes run at once and lets callers give up while
// they wait for a slot.
package password

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

const argon2idPrefix = "$argon2id$"

// Hasher produces salted one-way hashes and verifies passwords against them.
type Hasher interface {
	Hash(plain string) (string, error)
	// Compare reports whether plain matches hash. A mismatch is not an error.
	Compare(hash, plain string) (bool, error)
}

// Bcrypt hashes with golang.org/x/crypto/bcrypt.
type Bcrypt struct {
	Cost int
}

func (b Bcrypt) Hash(plain string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

func (b Bcrypt) Compare(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to compare password: %w", err)
	}
	return true, nil
}

// Argon2id hashes with github.com/alexedwards/argon2id.
type Argon2id struct {
	Params *argon2id.Params
}

func (a Argon2id) Hash(plain string) (string, error) {
	params := a.Params
	if params == nil {
		params = argon2id.DefaultParams
	}
	hashed, err := argon2id.CreateHash(plain, params)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return hashed, nil
}

func (a Argon2id) Compare(hash, plain string) (bool, error) {
	match, err := argon2id.ComparePasswordAndHash(plain, hash)
	if err != nil {
		return false, fmt.Errorf("failed to compare password: %w", err)
	}
	return match, nil
}

// New returns the hasher registered under kind.
func New(kind string, bcryptCost int) (Hasher, error) {
	switch kind {
	case "bcrypt", "":
		return Bcrypt{Cost: bcryptCost}, nil
	case "argon2id":
		return Argon2id{Params: argon2id.DefaultParams}, nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", kind)
	}
}

// Pool runs a Hasher with at most n operations in flight.
type Pool struct {
	hasher Hasher
	sem    *semaphore.Weighted
}

// NewPool wraps hasher so that no more than workers hashes run concurrently.
func NewPool(hasher Hasher, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		hasher: hasher,
		sem:    semaphore.NewWeighted(int64(workers)),
	}
}

// Hash waits for a free slot, or until ctx is done, and hashes plain.
func (p *Pool) Hash(ctx context.Context, plain string) (string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for hash worker: %w", err)
	}
	defer p.sem.Release(1)

	return p.hasher.Hash(plain)
}

// Compare waits for a free slot, or until ctx is done, and verifies plain
// against hash. Hashes produced by the other built-in algorithm are still
// verified, so switching PASSWORD_HASHER does not lock existing users out.
func (p *Pool) Compare(ctx context.Context, hash, plain string) (bool, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("waiting for hash worker: %w", err)
	}
	defer p.sem.Release(1)

	return p.verifierFor(hash).Compare(hash, plain)
}

func (p *Pool) verifierFor(hash string) Hasher {
	switch {
	case strings.HasPrefix(hash, argon2idPrefix):
		if _, ok := p.hasher.(Argon2id); !ok {
			return Argon2id{}
		}
	case strings.HasPrefix(hash, "$2"):
		if _, ok := p.hasher.(Bcrypt); !ok {
			return Bcrypt{}
		}
	}
	return p.hasher
}
