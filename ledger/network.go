package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

var (
	LocalChainID   = big.NewInt(1337)
	HardhatChainID = big.NewInt(31337)
)

var networkNames = []struct {
	id   *big.Int
	name string
}{
	{id: params.MainnetChainConfig.ChainID, name: "Ethereum Mainnet"},
	{id: params.SepoliaChainConfig.ChainID, name: "Sepolia"},
	{id: params.HoleskyChainConfig.ChainID, name: "Holesky"},
	{id: LocalChainID, name: "Local Blockchain"},
	{id: HardhatChainID, name: "Hardhat"},
}

// NetworkName returns the display name of the chain.
func NetworkName(chainID *big.Int) string {
	if chainID == nil {
		return "unknown"
	}

	for i := range networkNames {
		if networkNames[i].id.Cmp(chainID) == 0 {
			return networkNames[i].name
		}
	}

	return fmt.Sprintf("chain %s", chainID.String())
}

func SameChain(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}

	return a.Cmp(b) == 0
}
