package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// ChallengeLength is the verifier length used for logins.
const ChallengeLength = 128

const challengeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewChallenge returns a random alphanumeric PKCE code verifier of n
// characters. The catalog only supports the plain challenge method, so the
// verifier is sent as the challenge too. NewChallenge panics unless
// 48 <= n <= 128.
func NewChallenge(n int) string {
	if n < 48 || n > 128 {
		panic(fmt.Sprintf("auth: challenge length %d not in 48..128", n))
	}
	limit := big.NewInt(int64(len(challengeAlphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		buf[i] = challengeAlphabet[idx.Int64()]
	}
	return string(buf)
}
