// Package config holds the static configuration for the treasury backend.
//
// The wallet, category and budget allocation tables are process-lifetime
// constants: they are loaded exactly once at startup and injected as
// read-only data into the ingestion pipeline and the aggregation engine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Uncategorised is the sentinel category assigned to every transaction
// until an operator files it somewhere else.
const Uncategorised = "Uncategorised"

// Wallet is a tracked multisig wallet.
type Wallet struct {
	ID          string   // slug, e.g. "treasury"
	Name        string   // display name
	Address     string   // chain address, empty if not yet deployed
	Description string
	Group       string   // budget group the wallet belongs to
	Categories  []string // allowed categories, in display order
}

// HasCategory reports whether the category is configured for the wallet.
func (w Wallet) HasCategory(name string) bool {
	for _, c := range w.Categories {
		if c == name {
			return true
		}
	}

	return false
}

// Allocation is the budget ceiling configuration for a single category.
//
// Allocations with the same SharedID draw against one shared ceiling.
type Allocation struct {
	Category  string
	Group     string
	Quarterly decimal.Decimal // fiat ceiling per quarter, zero if none
	Semester  decimal.Decimal // fiat ceiling per semester
	SharedID  string          // shared pool identifier, empty if exclusive
}

type Config struct {
	// HTTP server
	Port     string
	APIToken string // bearer token required for write endpoints

	// Database
	DBPath string

	// Chain explorer (Etherscan V2 compatible)
	ExplorerURL    string
	ExplorerAPIKey string
	ChainID        int

	// Price oracle (DefiLlama compatible)
	PriceURL string

	// Safe Transaction Service
	SafeURL string

	// Ingestion
	FetchInterval time.Duration
	PageSize      int

	// Budget comparison display cap, e.g. 1.5 caps displayed usage at 150%
	BudgetDisplayCap decimal.Decimal

	// Immutable domain tables
	Wallets      []Wallet
	Allocations  []Allocation
	CoinGeckoIDs map[string]string // token symbol -> coingecko id
}

// Load reads the configuration from the environment, falling back to
// defaults for everything that is not set.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		APIToken: getEnv("API_TOKEN", ""),

		DBPath: getEnv("DB_PATH", "data/treasury.db"),

		ExplorerURL:    getEnv("EXPLORER_URL", "https://api.etherscan.io/v2/api"),
		ExplorerAPIKey: getEnv("EXPLORER_API_KEY", ""),
		ChainID:        getEnvInt("CHAIN_ID", 534352),

		PriceURL: getEnv("PRICE_URL", "https://coins.llama.fi"),
		// The safe client appends /api/v1 itself, SAFE_URL is the bare host
		SafeURL: getEnv("SAFE_URL", "https://safe-transaction-scroll.safe.global"),

		FetchInterval: getEnvDuration("FETCH_INTERVAL", 15*time.Minute),
		PageSize:      getEnvInt("FETCH_PAGE_SIZE", 1000),

		BudgetDisplayCap: decimal.RequireFromString(getEnv("BUDGET_DISPLAY_CAP", "1.5")),

		Wallets:      defaultWallets,
		Allocations:  defaultAllocations,
		CoinGeckoIDs: defaultCoinGeckoIDs,
	}
}

// Validate checks the configuration and returns an error describing
// everything that is wrong with it.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.PageSize < 1 {
		problems = append(problems, fmt.Sprintf("invalid fetch page size %d: must be positive", c.PageSize))
	}

	if c.FetchInterval < time.Minute {
		problems = append(problems, fmt.Sprintf("invalid fetch interval %s: must be at least one minute", c.FetchInterval))
	}

	seen := make(map[string]bool, len(c.Wallets))
	for _, w := range c.Wallets {
		if seen[w.ID] {
			problems = append(problems, fmt.Sprintf("duplicate wallet id %q", w.ID))
		}
		seen[w.ID] = true

		if !w.HasCategory(Uncategorised) {
			problems = append(problems, fmt.Sprintf("wallet %q does not allow the %q category", w.ID, Uncategorised))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(problems, "; "))
	}

	return nil
}

// Wallet returns the configured wallet with the given ID.
func (c *Config) Wallet(id string) (Wallet, bool) {
	for _, w := range c.Wallets {
		if w.ID == id {
			return w, true
		}
	}

	return Wallet{}, false
}

// Allocation returns the budget allocation for a category.
func (c *Config) Allocation(category string) (Allocation, bool) {
	for _, a := range c.Allocations {
		if a.Category == category {
			return a, true
		}
	}

	return Allocation{}, false
}

// Groups returns the budget groups in their configured order. The order is
// derived from the first appearance of each group in the allocation table.
func (c *Config) Groups() []string {
	var groups []string
	seen := make(map[string]bool)

	for _, a := range c.Allocations {
		if !seen[a.Group] {
			groups = append(groups, a.Group)
			seen[a.Group] = true
		}
	}

	return groups
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}

	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}

	return fallback
}
