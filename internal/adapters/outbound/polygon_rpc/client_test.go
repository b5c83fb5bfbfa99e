package polygon_rpc

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	callResult []byte
	callErr    error
	lastCall   ethereum.CallMsg
	sent       *types.Transaction
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastCall = msg
	return f.callResult, f.callErr
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) { return 7, nil }

func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(30_000_000_000), nil
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: big.NewInt(100)}, nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 46_000, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.sent = tx
	return nil
}

var (
	token   = common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174")
	owner   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	spender = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func TestAllowance(t *testing.T) {
	fb := &fakeBackend{callResult: common.LeftPadBytes(big.NewInt(1_500_000).Bytes(), 32)}
	c, err := NewClient(fb, 137)
	require.NoError(t, err)

	got, err := c.Allowance(context.Background(), token, owner, spender)
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000), got.Int64())

	require.NotNil(t, fb.lastCall.To)
	assert.Equal(t, token, *fb.lastCall.To)
	// allowance(address,address) selector followed by two padded words
	assert.Equal(t, "dd62ed3e", common.Bytes2Hex(fb.lastCall.Data[:4]))
	assert.Len(t, fb.lastCall.Data, 4+64)
	assert.Equal(t, owner, common.BytesToAddress(fb.lastCall.Data[4:36]))
}

func TestAllowance_RPCError(t *testing.T) {
	c, err := NewClient(&fakeBackend{callErr: errors.New("connection refused")}, 137)
	require.NoError(t, err)

	_, err = c.Allowance(context.Background(), token, owner, spender)
	assert.ErrorContains(t, err, "connection refused")
}

func TestAllowance_EmptyResult(t *testing.T) {
	c, err := NewClient(&fakeBackend{}, 137)
	require.NoError(t, err)

	_, err = c.Allowance(context.Background(), token, owner, spender)
	assert.ErrorContains(t, err, "unpack allowance")
}

func TestApprove(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	fb := &fakeBackend{}
	c, err := NewClient(fb, 137)
	require.NoError(t, err)

	hash, err := c.Approve(context.Background(), key, token, spender, math.MaxBig256)
	require.NoError(t, err)
	require.NotNil(t, fb.sent)

	tx := fb.sent
	assert.Equal(t, hash, tx.Hash())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, token, *tx.To())
	assert.Equal(t, uint64(46_000), tx.Gas())
	assert.Equal(t, big.NewInt(30_000_000_200), tx.GasFeeCap())
	assert.Equal(t, "095ea7b3", common.Bytes2Hex(tx.Data()[:4]))

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(137)), tx)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), from)
}
