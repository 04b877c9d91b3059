// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/crosschain-arb/business/arbitrage/app"
	"github.com/fd1az/crosschain-arb/business/arbitrage/domain"
	"github.com/fd1az/crosschain-arb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Scanner = di.NewToken[*app.Scanner]("arbitrage.Scanner")
)

// Private dependency tokens - internal to arbitrage module
var (
	CostModel  = di.NewToken[*domain.CostModel]("arbitrage:costModel")
	Calculator = di.NewToken[*app.ProfitCalculator]("arbitrage:calculator")
)

// Helper functions for type-safe access
func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetCostModel(c di.ServiceRegistry) *domain.CostModel {
	return di.GetToken(c, CostModel)
}

func GetCalculator(c di.ServiceRegistry) *app.ProfitCalculator {
	return di.GetToken(c, Calculator)
}
