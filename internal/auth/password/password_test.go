package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	encoded, err := Hash("s3cret-pass")
	require.NoError(t, err)

	assert.True(t, Verify("s3cret-pass", encoded))
	assert.False(t, Verify("wrong", encoded))
	assert.False(t, NeedsRehash(encoded))
}

func TestVerifyLegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte("old-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, Verify("old-pass", string(legacy)))
	assert.False(t, Verify("other", string(legacy)))
	assert.True(t, NeedsRehash(string(legacy)))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	for _, encoded := range []string{"", "plain", "$argon2id$v=19$m=x,t=1,p=1$a$b", "$argon2id$v=18$m=1,t=1,p=1$a$b"} {
		assert.False(t, Verify("anything", encoded), encoded)
	}
}
