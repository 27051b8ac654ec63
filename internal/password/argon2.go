package password

// Package password hashes and verifies user credentials with Argon2id.
// Parameters are embedded in the PHC-encoded output, so verification never
// depends on current configuration and cost parameters can be raised over
// time without migrating stored rows.

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

var (
	// ErrEmptyPassword is returned when an empty plaintext reaches Hash.
	// Callers validate length beforehand; an empty input here is a bug.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrMalformedHash is returned when a stored hash cannot be parsed.
	// This indicates corrupted stored data, never a wrong password.
	ErrMalformedHash = errors.New("malformed password hash")
)

// Params are Argon2id cost parameters. Memory is in KiB.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams returns the current hashing policy: 64 MiB, 3 passes, 4 lanes.
func DefaultParams() Params {
	return Params{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Hasher hashes and verifies passwords. Safe for concurrent use.
type Hasher struct {
	params Params
	dummy  string
}

// NewHasher constructs a Hasher and precomputes the dummy hash used to keep
// login timing uniform when the email does not exist.
func NewHasher(params Params) (*Hasher, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}
	h := &Hasher{params: params}

	// The dummy plaintext is random and discarded, so no real credential can
	// ever verify against the dummy hash.
	throwaway := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, throwaway); err != nil {
		return nil, fmt.Errorf("generate dummy credential: %w", err)
	}
	dummy, err := h.Hash(base64.RawStdEncoding.EncodeToString(throwaway))
	if err != nil {
		return nil, fmt.Errorf("precompute dummy hash: %w", err)
	}
	h.dummy = dummy
	return h, nil
}

// Hash derives an Argon2id hash of the plaintext with a fresh random salt and
// returns it PHC-encoded: $argon2id$v=19$m=...,t=...,p=...$salt$hash.
func (h *Hasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey(
		[]byte(plaintext),
		salt,
		h.params.Time,
		h.params.Memory,
		h.params.Parallelism,
		h.params.KeyLength,
	)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify recomputes the hash with the parameters embedded in encoded and
// compares in constant time. A mismatched password is (false, nil); an error
// is returned only for malformed stored data.
func (h *Hasher) Verify(plaintext, encoded string) (bool, error) {
	parsed, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey(
		[]byte(plaintext),
		parsed.salt,
		parsed.time,
		parsed.memory,
		parsed.parallelism,
		uint32(len(parsed.key)),
	)

	return subtle.ConstantTimeCompare(computed, parsed.key) == 1, nil
}

// DummyHash returns a valid hash of a discarded random credential. Login uses
// it to run a full verification when the email is unknown, keeping the two
// failure paths timing-indistinguishable.
func (h *Hasher) DummyHash() string {
	return h.dummy
}

// NeedsRehash reports whether a stored hash was produced with weaker cost
// parameters than the current policy. Malformed input reports true so the
// hash gets replaced on the next successful login.
func (h *Hasher) NeedsRehash(encoded string) bool {
	parsed, err := parsePHC(encoded)
	if err != nil {
		return true
	}
	return parsed.memory < h.params.Memory ||
		parsed.time < h.params.Time ||
		parsed.parallelism < h.params.Parallelism ||
		uint32(len(parsed.key)) != h.params.KeyLength
}

type phcHash struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parsePHC(encoded string) (*phcHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return nil, ErrMalformedHash
	}
	if parts[1] != algorithmID {
		return nil, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, parts[1])
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return nil, fmt.Errorf("%w: bad version", ErrMalformedHash)
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported argon2 version %d", ErrMalformedHash, version)
	}

	out := &phcHash{}
	if err := parseCostParams(parts[3], out); err != nil {
		return nil, err
	}

	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(out.salt) == 0 {
		return nil, fmt.Errorf("%w: bad salt", ErrMalformedHash)
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(out.key) == 0 {
		return nil, fmt.Errorf("%w: bad digest", ErrMalformedHash)
	}
	return out, nil
}

func parseCostParams(part string, out *phcHash) error {
	pairs := strings.Split(part, ",")
	if len(pairs) != 3 {
		return fmt.Errorf("%w: bad cost parameters", ErrMalformedHash)
	}
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return fmt.Errorf("%w: bad cost parameters", ErrMalformedHash)
		}
		switch kv[0] {
		case "m":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v == 0 {
				return fmt.Errorf("%w: bad memory parameter", ErrMalformedHash)
			}
			out.memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(kv[1], 10, 32)
			if err != nil || v == 0 {
				return fmt.Errorf("%w: bad time parameter", ErrMalformedHash)
			}
			out.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(kv[1], 10, 8)
			if err != nil || v == 0 {
				return fmt.Errorf("%w: bad parallelism parameter", ErrMalformedHash)
			}
			out.parallelism = uint8(v)
		default:
			return fmt.Errorf("%w: unknown cost parameter %q", ErrMalformedHash, kv[0])
		}
	}
	if out.memory == 0 || out.time == 0 || out.parallelism == 0 {
		return fmt.Errorf("%w: missing cost parameters", ErrMalformedHash)
	}
	return nil
}

func validateParams(p Params) error {
	if p.Memory < 8*1024 {
		return errors.New("argon2 memory must be >= 8192 KiB")
	}
	if p.Time < 1 {
		return errors.New("argon2 time must be >= 1")
	}
	if p.Parallelism < 1 {
		return errors.New("argon2 parallelism must be >= 1")
	}
	if p.SaltLength < 16 {
		return errors.New("argon2 salt length must be >= 16")
	}
	if p.KeyLength < 16 {
		return errors.New("argon2 key length must be >= 16")
	}
	return nil
}
