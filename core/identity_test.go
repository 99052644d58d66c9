package core

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestNewAddressSet(t *testing.T) {
	user := &DirectoryUser{
		CustodyAddress: "0x1111111111111111111111111111111111111111",
		VerifiedAddresses: []string{
			"0x2222222222222222222222222222222222222222",
			"0x3333333333333333333333333333333333333333",
			"0x4444444444444444444444444444444444444444",
		},
	}

	assert.Equal(t, AddressSet{
		common.HexToAddress("0x1111111111111111111111111111111111111111"),
		common.HexToAddress("0x4444444444444444444444444444444444444444"),
		common.HexToAddress("0x3333333333333333333333333333333333333333"),
		common.HexToAddress("0x2222222222222222222222222222222222222222"),
	}, NewAddressSet(user))
}

func TestNewAddressSet_Empty(t *testing.T) {
	assert.Empty(t, NewAddressSet(nil))
	assert.Empty(t, NewAddressSet(&DirectoryUser{}))
	assert.Empty(t, NewAddressSet(&DirectoryUser{CustodyAddress: "0x123", VerifiedAddresses: []string{"bogus"}}))
}

func TestNewSession(t *testing.T) {
	now := time.Unix(1_700_000_000, 500)
	s := NewSession(9, now)

	assert.Equal(t, SubjectFarcasterUser, s.Subject)
	assert.Equal(t, FID(9), s.FID)
	assert.Equal(t, time.Unix(1_700_000_000, 0), s.IssuedAt)
	assert.Equal(t, 86400*time.Second, s.ExpiresAt.Sub(s.IssuedAt))
}

func TestFID(t *testing.T) {
	assert.False(t, FID(0).Valid())
	assert.True(t, FID(1).Valid())
	assert.Equal(t, "18446744073709551615", FID(^uint64(0)).String())
}
