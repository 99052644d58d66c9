// Package ethsig verifies EIP-191 personal_sign signatures, falling back to
// ERC-1271 for contract wallets when a chain client is configured.
package ethsig

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/snappa/core"
	"github.com/layer-3/snappa/ports"
)

const erc1271ABI = `[{"type":"function","name":"isValidSignature","stateMutability":"view",
"inputs":[{"name":"hash","type":"bytes32"},{"name":"signature","type":"bytes"}],
"outputs":[{"name":"magicValue","type":"bytes4"}]}]`

// erc1271MagicValue is bytes4(keccak256("isValidSignature(bytes32,bytes)"))
var erc1271MagicValue = []byte{0x16, 0x26, 0xba, 0x7e}

// ContractCaller is the subset of ethclient.Client used for ERC-1271 checks
type ContractCaller interface {
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Verifier implements ports.SignatureVerifier
type Verifier struct {
	caller ContractCaller
	abi    abi.ABI
}

// NewVerifier creates a verifier. caller may be nil, in which case only
// EOA signatures are accepted.
func NewVerifier(caller ContractCaller) ports.SignatureVerifier {
	parsed, err := abi.JSON(strings.NewReader(erc1271ABI))
	if err != nil {
		panic(fmt.Sprintf("ethsig: invalid ERC-1271 ABI: %v", err))
	}
	return &Verifier{caller: caller, abi: parsed}
}

// Verify reports whether address signed message. Malformed signatures are
// returned as errors wrapping core.ErrInvalidSignature.
func (v *Verifier) Verify(ctx context.Context, address common.Address, message, signature string) (bool, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}

	hash := accounts.TextHash([]byte(message))

	if len(sig) == crypto.SignatureLength {
		recovered, err := recoverAddress(hash, sig)
		if err == nil && recovered == address {
			return true, nil
		}
		if v.caller == nil {
			return false, err
		}
	} else if v.caller == nil {
		return false, fmt.Errorf("signature must be %d bytes: %w", crypto.SignatureLength, core.ErrInvalidSignature)
	}

	return v.verifyContract(ctx, address, hash, sig)
}

func recoverAddress(hash, sig []byte) (common.Address, error) {
	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", core.ErrInvalidSignature)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

func (v *Verifier) verifyContract(ctx context.Context, address common.Address, hash, sig []byte) (bool, error) {
	code, err := v.caller.CodeAt(ctx, address, nil)
	if err != nil {
		return false, fmt.Errorf("failed to fetch code: %w", err)
	}
	if len(code) == 0 {
		return false, nil
	}

	var digest [32]byte
	copy(digest[:], hash)

	data, err := v.abi.Pack("isValidSignature", digest, sig)
	if err != nil {
		return false, fmt.Errorf("failed to pack isValidSignature: %w", err)
	}

	out, err := v.caller.CallContract(ctx, ethereum.CallMsg{To: &address, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("isValidSignature call failed: %w", err)
	}

	return bytes.HasPrefix(out, erc1271MagicValue), nil
}
