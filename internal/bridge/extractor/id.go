package extractor

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

var identityArguments = abi.Arguments{
	{Name: "originBlockHash", Type: mustType("bytes32")},
	{Name: "originTransactionHash", Type: mustType("bytes32")},
	{Name: "originNetworkId", Type: mustType("bytes4")},
	{Name: "nonce", Type: mustType("uint256")},
	{Name: "destinationAccount", Type: mustType("string")},
	{Name: "destinationNetworkId", Type: mustType("bytes4")},
	{Name: "underlyingAssetTokenAddress", Type: mustType("address")},
	{Name: "assetAmount", Type: mustType("uint256")},
	{Name: "userData", Type: mustType("bytes")},
	{Name: "optionsMask", Type: mustType("bytes32")},
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}

// OperationID returns the keccak256 hash of the ABI encoded identity fields of op.
// Every observation of the same operation, on either network, yields the same id.
func OperationID(op model.Operation) (string, error) {
	packed, err := identityArguments.Pack(
		[32]byte(common.HexToHash(op.OriginBlockHash)),
		[32]byte(common.HexToHash(op.OriginTxHash)),
		[4]byte(op.OriginNetwork),
		orZero(op.Nonce),
		op.DestinationAccount,
		[4]byte(op.DestinationNetwork),
		common.HexToAddress(op.AssetAddress),
		orZero(op.Amount),
		nonNil(op.UserData),
		[32]byte(common.HexToHash(op.OptionsMask)),
	)
	if err != nil {
		return "", fmt.Errorf("pack operation identity: %w", err)
	}
	return crypto.Keccak256Hash(packed).Hex(), nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
