package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastParams keeps unit tests quick without changing the code paths under test.
func fastParams() Params {
	return Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHasher_HashAndVerify(t *testing.T) {
	hasher, err := NewHasher(fastParams())
	require.NoError(t, err)

	encoded, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	ok, err := hasher.Verify("correct horse battery staple", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestHasher_VerifyWrongPassword(t *testing.T) {
	hasher, err := NewHasher(fastParams())
	require.NoError(t, err)

	encoded, err := hasher.Hash("right password")
	require.NoError(t, err)

	ok, err := hasher.Verify("wrong password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasher_HashIsSalted(t *testing.T) {
	hasher, err := NewHasher(fastParams())
	require.NoError(t, err)

	first, err := hasher.Hash("same password")
	require.NoError(t, err)
	second, err := hasher.Hash("same password")
	require.NoError(t, err)

	// Fresh random salt per hash means identical inputs never collide.
	assert.NotEqual(t, first, second)
}

func TestHasher_HashEmptyPassword(t *testing.T) {
	hasher, err := NewHasher(fastParams())
	require.NoError(t, err)

	_, err = hasher.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	hasher, err := NewHasher(fastParams())
	require.NoError(t, err)

	cases := []string{
		"",
		"not a hash",
		"$argon2id$v=19$m=8192,t=1,p=1$salt",
		"$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2Fs$aGFzaA",
		"$argon2id$v=19$m=bad,t=1,p=1$c2FsdHNhbHRzYWx0c2Fs$aGFzaA",
	}
	for _, encoded := range cases {
		_, verifyErr := hasher.Verify("anything", encoded)
		assert.ErrorIs(t, verifyErr, ErrMalformedHash, "input: %q", encoded)
	}
}

func TestHasher_DummyHashNeverVerifies(t *testing.T) {
	hasher, err := NewHasher(fastParams())
	require.NoError(t, err)

	dummy := hasher.DummyHash()
	require.NotEmpty(t, dummy)

	for _, guess := range []string{"", "password", "dummy", dummy} {
		ok, verifyErr := hasher.Verify(guess, dummy)
		require.NoError(t, verifyErr)
		assert.False(t, ok)
	}
}

func TestHasher_NeedsRehash(t *testing.T) {
	weak, err := NewHasher(fastParams())
	require.NoError(t, err)

	encoded, err := weak.Hash("password123")
	require.NoError(t, err)

	// Same policy: no rehash needed.
	assert.False(t, weak.NeedsRehash(encoded))

	strong, err := NewHasher(DefaultParams())
	require.NoError(t, err)

	// Hash produced under weaker cost parameters should be flagged.
	assert.True(t, strong.NeedsRehash(encoded))

	// A hash we cannot parse should be flagged for replacement too.
	assert.True(t, strong.NeedsRehash("garbage"))
}

func TestDefaultParams(t *testing.T) {
	params := DefaultParams()
	assert.Equal(t, uint32(64*1024), params.Memory)
	assert.Equal(t, uint32(3), params.Time)
	assert.Equal(t, uint8(4), params.Parallelism)
	assert.Equal(t, uint32(16), params.SaltLength)
	assert.Equal(t, uint32(32), params.KeyLength)
}

func TestNewHasher_InvalidParams(t *testing.T) {
	_, err := NewHasher(Params{})
	assert.Error(t, err)
}
