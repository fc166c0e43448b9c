// Package shipping prices delivery options for a destination and weight.
// Estimation is a pure function: no storage, no randomness, identical
// inputs always produce identical quotes.
package shipping

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/webshop/storefront/internal/domain"
)

type zone struct {
	name       string
	multiplier decimal.Decimal
	baseDays   int
}

var (
	zoneLocal         = zone{"local", decimal.NewFromFloat(1.0), 1}
	zoneRegional      = zone{"regional", decimal.NewFromFloat(1.5), 3}
	zoneNational      = zone{"national", decimal.NewFromFloat(2.0), 5}
	zoneInternational = zone{"international", decimal.NewFromFloat(3.5), 10}
)

type method struct {
	name        string
	baseCost    decimal.Decimal
	weightCap   float64
	speedFactor float64
}

var methods = []method{
	{"Standard", decimal.NewFromFloat(5.99), 50, 1.0},
	{"Express", decimal.NewFromFloat(12.99), 30, 0.4},
	{"Overnight", decimal.NewFromFloat(24.99), 20, 0.2},
}

// freightBase prices the fallback option when every regular method's
// weight cap is exceeded.
var freightBase = decimal.NewFromFloat(50.0)

// Estimate returns candidate shipping options for a destination address
// and total weight, sorted by ascending cost. When the weight exceeds
// every method's cap a single synthetic Freight option is returned.
func Estimate(destinationAddress string, totalWeight float64) ([]domain.ShippingOption, error) {
	if strings.TrimSpace(destinationAddress) == "" || totalWeight <= 0 {
		return nil, domain.ErrInvalidInput
	}

	z := classifyZone(destinationAddress)
	weightMult := weightMultiplier(totalWeight)

	var options []domain.ShippingOption
	for _, m := range methods {
		if totalWeight > m.weightCap {
			continue
		}

		days := int(math.Ceil(float64(z.baseDays) * m.speedFactor))
		if days < 1 {
			days = 1
		}

		options = append(options, domain.ShippingOption{
			Method:        m.name,
			Cost:          m.baseCost.Mul(z.multiplier).Mul(weightMult).Round(2),
			EstimatedDays: days,
		})
	}

	if len(options) == 0 {
		return []domain.ShippingOption{{
			Method:        "Freight",
			Cost:          freightBase.Mul(z.multiplier).Mul(weightMult).Round(2),
			EstimatedDays: z.baseDays + 2,
		}}, nil
	}

	sort.Slice(options, func(i, j int) bool {
		return options[i].Cost.LessThan(options[j].Cost)
	})

	return options, nil
}

// classifyZone is a coarse address-text heuristic; anything without a
// recognized marker ships as national.
func classifyZone(address string) zone {
	addr := strings.ToLower(address)
	switch {
	case strings.Contains(addr, "local"):
		return zoneLocal
	case strings.Contains(addr, "regional"):
		return zoneRegional
	case strings.Contains(addr, "international"), strings.Contains(addr, "overseas"):
		return zoneInternational
	default:
		return zoneNational
	}
}

func weightMultiplier(totalWeight float64) decimal.Decimal {
	switch {
	case totalWeight <= 1:
		return decimal.NewFromFloat(1.0)
	case totalWeight <= 5:
		return decimal.NewFromFloat(1.2)
	case totalWeight <= 10:
		return decimal.NewFromFloat(1.5)
	case totalWeight <= 20:
		return decimal.NewFromFloat(2.0)
	default:
		return decimal.NewFromFloat(2.5)
	}
}
