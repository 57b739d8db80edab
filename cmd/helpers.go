package cmd

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/expendi/expendi-cli/internal/budget"
	"github.com/expendi/expendi-cli/internal/config"
	"github.com/expendi/expendi-cli/internal/ui"
)

func usdcAddress() string {
	return config.Base.USDCAddress
}

func formatUSDC(v *big.Int) string {
	return budget.FormatAmount(v) + " USDC"
}

func formatETH(wei *big.Int) string {
	return decimal.NewFromBigInt(wei, -18).StringFixed(6) + " ETH"
}

func explorerTxURL(hash string) string {
	return config.Base.BlockExplorer + "/tx/" + hash
}

// txResultPairs builds the standard output block for a completed write.
func txResultPairs(result *budget.TxResult) [][2]string {
	pairs := [][2]string{
		{"Tx", ui.Addr(result.TxHash)},
		{"Explorer", ui.Meta(explorerTxURL(result.TxHash))},
	}
	if result.Bucket != nil {
		pairs = append(pairs,
			[2]string{"Bucket", ui.BucketName(result.Bucket.Name)},
			[2]string{"Balance", ui.Val(formatUSDC(result.Bucket.BalanceOf(usdcAddress())))},
		)
	}
	return pairs
}
