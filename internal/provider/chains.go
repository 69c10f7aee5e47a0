package provider

import (
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// Chain identifiers of networks that have no chain config in go-ethereum.
var (
	chainOptimism       = eip155(big.NewInt(10))
	chainBSC            = eip155(big.NewInt(56))
	chainBSCTestnet     = eip155(big.NewInt(97))
	chainGnosis         = eip155(big.NewInt(100))
	chainPolygon        = eip155(big.NewInt(137))
	chainFantom         = eip155(big.NewInt(250))
	chainArbitrum       = eip155(big.NewInt(42161))
	chainAvalanche      = eip155(big.NewInt(43114))
	chainPolygonMumbai  = eip155(big.NewInt(80001))
	chainOptimismGoerli = eip155(big.NewInt(420))
)

func eip155(id *big.Int) string {
	return "eip155:" + id.String()
}

// DefaultInfuraChains maps chain identifiers to Infura network subdomains.
func DefaultInfuraChains() map[string]string {
	return map[string]string{
		eip155(params.MainnetChainConfig.ChainID): "mainnet",
		eip155(params.GoerliChainConfig.ChainID):  "goerli",
		eip155(params.SepoliaChainConfig.ChainID): "sepolia",
		eip155(params.HoleskyChainConfig.ChainID): "holesky",

		chainOptimism:       "optimism-mainnet",
		chainOptimismGoerli: "optimism-goerli",
		chainPolygon:        "polygon-mainnet",
		chainPolygonMumbai:  "polygon-mumbai",
		chainArbitrum:       "arbitrum-mainnet",
	}
}

// DefaultPoktChains maps chain identifiers to Pokt gateway subdomains.
func DefaultPoktChains() map[string]string {
	return map[string]string{
		eip155(params.MainnetChainConfig.ChainID): "eth-mainnet",

		chainGnosis:    "poa-xdai",
		chainPolygon:   "poly-mainnet",
		chainFantom:    "fantom-mainnet",
		chainAvalanche: "avax-mainnet",
	}
}

// DefaultBinanceChains maps chain identifiers to complete BNB Chain RPC URLs.
func DefaultBinanceChains() map[string]string {
	return map[string]string{
		chainBSC:        "https://bsc-dataseed.binance.org/",
		chainBSCTestnet: "https://data-seed-prebsc-1-s1.binance.org:8545/",
	}
}
