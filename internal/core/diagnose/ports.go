package diagnose

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/charleschow/polyclob/internal/adapters/outbound/clob_http"
	"github.com/charleschow/polyclob/internal/adapters/outbound/polygon_rpc"
	"github.com/charleschow/polyclob/internal/core/trading"
)

var (
	_ Exchange = (*clob_http.Client)(nil)
	_ Chain    = (*polygon_rpc.Client)(nil)
)

// Exchange is the account view of the CLOB. Satisfied by *clob_http.Client.
type Exchange interface {
	Identity() clob_http.Identity
	GetBalanceAllowance(ctx context.Context, p clob_http.BalanceAllowanceParams) (*trading.BalanceAllowance, error)
	UpdateBalanceAllowance(ctx context.Context, p clob_http.BalanceAllowanceParams) (json.RawMessage, error)
}

// Chain reads and sets ERC-20 allowances. Satisfied by *polygon_rpc.Client.
type Chain interface {
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	Approve(ctx context.Context, key *ecdsa.PrivateKey, token, spender common.Address, amount *big.Int) (common.Hash, error)
}
