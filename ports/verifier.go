package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// SignatureVerifier checks whether address produced signature over message.
type SignatureVerifier interface {
	Verify(ctx context.Context, address common.Address, message, signature string) (bool, error)
}
