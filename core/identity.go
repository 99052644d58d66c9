package core

import (
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// SubjectFarcasterUser marks a credential as a social-identity session.
	SubjectFarcasterUser = "farcaster_user"

	// SessionLifetime is the fixed lifetime of a session credential.
	SessionLifetime = 24 * time.Hour
)

// FID identifies a user in the external social graph.
type FID uint64

// Valid reports whether the fid can identify a user.
func (f FID) Valid() bool {
	return f > 0
}

func (f FID) String() string {
	return strconv.FormatUint(uint64(f), 10)
}

// DirectoryUser is the part of a directory record the sign-in flow needs.
type DirectoryUser struct {
	FID               FID      `json:"fid"`
	Username          string   `json:"username,omitempty"`
	CustodyAddress    string   `json:"custody_address"`
	VerifiedAddresses []string `json:"verified_addresses"` // in order of verification
}

// AddressSet is the ordered list of addresses allowed to sign for a FID:
// the custody address first, then verified addresses newest first.
type AddressSet []common.Address

// NewAddressSet builds the candidate list for a directory record. Addresses
// that are not valid hex are dropped; the rest are checksum-normalized.
func NewAddressSet(user *DirectoryUser) AddressSet {
	if user == nil {
		return nil
	}

	set := make(AddressSet, 0, len(user.VerifiedAddresses)+1)
	if common.IsHexAddress(user.CustodyAddress) {
		set = append(set, common.HexToAddress(user.CustodyAddress))
	}
	for i := len(user.VerifiedAddresses) - 1; i >= 0; i-- {
		if common.IsHexAddress(user.VerifiedAddresses[i]) {
			set = append(set, common.HexToAddress(user.VerifiedAddresses[i]))
		}
	}

	return set
}

// Hex returns the checksummed form of every address.
func (s AddressSet) Hex() []string {
	out := make([]string, len(s))
	for i, addr := range s {
		out[i] = addr.Hex()
	}
	return out
}

// Session holds the claims carried by a session credential.
type Session struct {
	Subject   string    // Always SubjectFarcasterUser for issued credentials
	FID       FID       // Identity the credential was issued for
	IssuedAt  time.Time // When the credential was issued
	ExpiresAt time.Time // IssuedAt + SessionLifetime
}

// NewSession returns the claims for a credential issued at now.
func NewSession(fid FID, now time.Time) *Session {
	issuedAt := now.Truncate(time.Second)
	return &Session{
		Subject:   SubjectFarcasterUser,
		FID:       fid,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(SessionLifetime),
	}
}
