package signup

import (
	"crypto/rand"
	"math/big"
)

// ReferralCodeLength is the length of every generated agent referral code.
const ReferralCodeLength = 8

const referralAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var alphabetSize = big.NewInt(int64(len(referralAlphabet)))

// NewReferralCode returns ReferralCodeLength random uppercase base-36 characters.
// Codes are not checked for uniqueness against existing agents.
func NewReferralCode() string {
	buf := make([]byte, ReferralCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			panic("signup: crypto/rand unavailable: " + err.Error())
		}
		buf[i] = referralAlphabet[n.Int64()]
	}
	return string(buf)
}
