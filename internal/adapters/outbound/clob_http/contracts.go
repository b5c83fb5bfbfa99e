package clob_http

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Contracts are the exchange-side addresses for a chain.
type Contracts struct {
	Exchange          common.Address
	NegRiskExchange   common.Address
	NegRiskAdapter    common.Address
	Collateral        common.Address // USDC.e
	ConditionalTokens common.Address
}

var contractsByChain = map[int64]Contracts{
	137: {
		Exchange:          common.HexToAddress("0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"),
		NegRiskExchange:   common.HexToAddress("0xC5d563A36AE78145C45a50134d48A1215220f80a"),
		NegRiskAdapter:    common.HexToAddress("0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296"),
		Collateral:        common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"),
		ConditionalTokens: common.HexToAddress("0x4D97DCd97eC945f40cF65F87097ACe5EA0476045"),
	},
	80002: {
		Exchange:          common.HexToAddress("0xdFE02Eb6733538f8Ea35D585af8DE5958AD99E40"),
		NegRiskExchange:   common.HexToAddress("0xC5d563A36AE78145C45a50134d48A1215220f80a"),
		NegRiskAdapter:    common.HexToAddress("0xd91E80cF2E7be2e162c6513ceD06f1dD0dA35296"),
		Collateral:        common.HexToAddress("0x9c4e1703476e875070ee25b56a58b008cfb8fa78"),
		ConditionalTokens: common.HexToAddress("0x69308FB512518e39F9b16112fA8d994F4e2Bf8bB"),
	},
}

func ContractsFor(chainID int64) (Contracts, error) {
	c, ok := contractsByChain[chainID]
	if !ok {
		return Contracts{}, fmt.Errorf("unsupported chain id %d (want 137 or 80002)", chainID)
	}
	return c, nil
}
