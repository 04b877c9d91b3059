// Package arbitrage implements the arbitrage bounded context: cost-aware
// cross-chain opportunity scans.
package arbitrage

import (
	"context"
	"fmt"

	"github.com/fd1az/crosschain-arb/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/crosschain-arb/business/arbitrage/di"
	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	"github.com/fd1az/crosschain-arb/business/arbitrage/infra/costtable"
	pricingDI "github.com/fd1az/crosschain-arb/business/pricing/di"
	pricingDomain "github.com/fd1az/crosschain-arb/business/pricing/domain"
	"github.com/fd1az/crosschain-arb/internal/config"
	"github.com/fd1az/crosschain-arb/internal/di"
	"github.com/fd1az/crosschain-arb/internal/logger"
	"github.com/fd1az/crosschain-arb/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
// The cost table is loaded here so a bad file fails registration instead of
// the first scan.
func (m *Module) RegisterServices(c di.Container) error {
	cfg := c.Get("config").(*config.Config)

	costs, err := costtable.Load(cfg.Scanner.CostTablePath)
	if err != nil {
		return err
	}
	chains, err := pricingDomain.ParseChains(cfg.Scanner.Chains)
	if err != nil {
		return fmt.Errorf("scanner.chains: %w", err)
	}

	di.RegisterToken(c, arbitrageDI.CostModel, func(di.ServiceRegistry) *domain.CostModel {
		return costs
	})

	di.RegisterToken(c, arbitrageDI.Calculator, func(sr di.ServiceRegistry) *app.ProfitCalculator {
		return app.NewProfitCalculator(arbitrageDI.GetCostModel(sr))
	})

	// Register Scanner (public - exposed to the HTTP API, CLI and TUI)
	di.RegisterToken(c, arbitrageDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		log := sr.Get("logger").(logger.LoggerInterface)

		scanner, err := app.NewScanner(
			pricingDI.GetAggregator(sr),
			arbitrageDI.GetCalculator(sr),
			app.ScannerConfig{
				DefaultChains:  chains,
				MinProfitUSD:   cfg.Scanner.MinProfitUSDDecimal(),
				NotionalAmount: cfg.Scanner.NotionalAmountDecimal(),
				MaxResults:     cfg.Scanner.MaxResults,
			},
			log,
		)
		if err != nil {
			panic("failed to create scanner: " + err.Error())
		}
		return scanner
	})

	return nil
}

// Startup resolves the scanner and logs the cost table in use.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	scanner := arbitrageDI.GetScanner(mono.Services())
	costs := scanner.Costs()

	source := mono.Config().Scanner.CostTablePath
	if source == "" {
		source = "embedded"
	}

	log.Info(ctx, "arbitrage module started",
		"cost_table", source,
		"bridges", len(costs.Bridges()),
		"default_chains", len(scanner.Config().DefaultChains),
		"min_profit_usd", scanner.Config().MinProfitUSD.String(),
		"notional", scanner.Config().NotionalAmount.String(),
	)
	return nil
}
