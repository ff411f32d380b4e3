package config

import "github.com/shopspring/decimal"

// The tables below mirror the DAO's published budget resolution. They change
// at most once per semester, so they live in code instead of a mutable store.

var defaultWallets = []Wallet{
	{
		ID:          "treasury",
		Name:        "DAO Treasury Multisig",
		Address:     "0x20fa362323447506D9d0C02483ae97C4e2d6B607",
		Description: "Main treasury wallet managed by the operations committee",
		Group:       "Operations",
		Categories: []string{
			Uncategorised,
			"Operations Committee",
			"General Purpose Budget",
			"Delegate Incentives",
			"Discretionary Budget",
			"Community Allocation",
			"Ecosystem Allocation",
			"Internal Operations",
		},
	},
	{
		ID:          "committee",
		Name:        "Operations Committee Multisig",
		Address:     "0x4cb06982dD097633426cf32038D9f1182a9aDA0c",
		Description: "Running expenses of the operations committee",
		Group:       "Operations",
		Categories: []string{
			Uncategorised,
			"Governance Facilitator",
			"Program Coordination",
			"Marketing Operator",
			"Accountability Lead",
			"Internal Operations",
		},
	},
	{
		ID:          "delegates",
		Name:        "Delegate Incentives Multisig",
		Address:     "0x9a1f4C7b583d5a9cCcD7aE7e0B9E87cD0b68295e",
		Description: "Incentive payments for governance delegates",
		Group:       "Delegates",
		Categories: []string{
			Uncategorised,
			"Governance Contribution Recognition",
			"Delegate Contributions Programme",
			"Internal Operations",
		},
	},
	{
		ID:          "community",
		Name:        "Community Allocation Multisig",
		Address:     "", // not yet deployed
		Description: "Funding for community programmes",
		Group:       "Community Pool",
		Categories: []string{
			Uncategorised,
			"Local Nodes",
			"Community Support Programme",
			"Internal Operations",
		},
	},
	{
		ID:          "ecosystem",
		Name:        "Ecosystem Allocation Multisig",
		Address:     "0x7Dd0eB67E2ac3C20C6cF9C9bDaAbd9a73F23bD14",
		Description: "Funding for ecosystem growth initiatives",
		Group:       "Programmes",
		Categories: []string{
			Uncategorised,
			"Founder Enablement Fund",
			"Creator Fund",
			"Security Subsidy Programme",
			"Internal Operations",
		},
	},
}

var defaultAllocations = []Allocation{
	// Operations
	{Category: "Operations Committee", Group: "Operations", Quarterly: usd(75_000), Semester: usd(150_000)},
	{Category: "Delegate Incentives", Group: "Operations", Quarterly: usd(60_000), Semester: usd(120_000)},
	{Category: "Discretionary Budget", Group: "Operations", Quarterly: usd(5_000), Semester: usd(10_000)},
	{Category: "Governance Facilitator", Group: "Operations", Semester: usd(30_000)},
	{Category: "Program Coordination", Group: "Operations", Semester: usd(30_000)},
	{Category: "Marketing Operator", Group: "Operations", Semester: usd(30_000)},
	{Category: "Accountability Lead", Group: "Operations", Semester: usd(30_000)},

	// DAO initiatives
	{Category: "General Purpose Budget", Group: "DAO Initiatives", Quarterly: usd(60_000), Semester: usd(120_000)},

	// Delegates
	{Category: "Governance Contribution Recognition", Group: "Delegates", Semester: usd(72_000)},
	{Category: "Delegate Contributions Programme", Group: "Delegates", Semester: usd(48_000)},

	// Programmes, the three ecosystem funds draw against one pool
	{Category: "Community Allocation", Group: "Programmes", Quarterly: usd(80_000), Semester: usd(160_000)},
	{Category: "Ecosystem Allocation", Group: "Programmes", Quarterly: usd(100_000), Semester: usd(200_000)},
	{Category: "Founder Enablement Fund", Group: "Programmes", Semester: usd(200_000), SharedID: "ecosystem_pool"},
	{Category: "Creator Fund", Group: "Programmes", Semester: usd(200_000), SharedID: "ecosystem_pool"},
	{Category: "Security Subsidy Programme", Group: "Programmes", Semester: usd(200_000), SharedID: "ecosystem_pool"},

	// Community pool
	{Category: "Local Nodes", Group: "Community Pool", Semester: usd(160_000), SharedID: "community_pool"},
	{Category: "Community Support Programme", Group: "Community Pool", Semester: usd(160_000), SharedID: "community_pool"},
}

var defaultCoinGeckoIDs = map[string]string{
	"ETH":  "ethereum",
	"WETH": "weth",
	"SCR":  "scroll",
	"USDC": "usd-coin",
	"USDT": "tether",
	"DAI":  "dai",
	"WBTC": "bitcoin",
}

func usd(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount)
}
