package clob_http

import (
	"github.com/ethereum/go-ethereum/common"
)

// Identity describes who the client trades as.
type Identity struct {
	Address         string `json:"address"`
	Funder          string `json:"funder"`
	SignatureType   int    `json:"signature_type"`
	Host            string `json:"host"`
	ChainID         int64  `json:"chain_id"`
	Collateral      string `json:"collateral"`
	Exchange        string `json:"exchange"`
	NegRiskExchange string `json:"neg_risk_exchange"`
}

func (c *Client) Identity() Identity {
	id := Identity{
		SignatureType:   c.sigType,
		Host:            c.baseURL,
		ChainID:         c.chainID,
		Collateral:      c.contracts.Collateral.Hex(),
		Exchange:        c.contracts.Exchange.Hex(),
		NegRiskExchange: c.contracts.NegRiskExchange.Hex(),
	}
	if c.signer != nil {
		id.Address = c.signer.Address().Hex()
	}
	id.Funder = c.makerAddress().Hex()
	if id.Funder == (common.Address{}).Hex() {
		id.Funder = ""
	}
	return id
}

// makerAddress is the wallet that funds orders: the configured funder
// (proxy or safe) or the signing EOA itself.
func (c *Client) makerAddress() common.Address {
	if c.funder != (common.Address{}) {
		return c.funder
	}
	if c.signer != nil {
		return c.signer.Address()
	}
	return common.Address{}
}
