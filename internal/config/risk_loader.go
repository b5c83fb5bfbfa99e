package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RiskLimits caps a single order. Zero means unlimited.
//
//	max_order_usd: 50
//	max_order_size: 200
type RiskLimits struct {
	MaxOrderUSD  float64 `yaml:"max_order_usd"`
	MaxOrderSize float64 `yaml:"max_order_size"`
}

// LoadRiskLimits reads the yaml file at path. An empty path yields no
// limits.
func LoadRiskLimits(path string) (RiskLimits, error) {
	if path == "" {
		return RiskLimits{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return RiskLimits{}, fmt.Errorf("read risk limits: %w", err)
	}

	var limits RiskLimits
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return RiskLimits{}, fmt.Errorf("parse risk limits: %w", err)
	}
	if limits.MaxOrderUSD < 0 || limits.MaxOrderSize < 0 {
		return RiskLimits{}, fmt.Errorf("risk limits in %s must not be negative", path)
	}

	return limits, nil
}

func (rl RiskLimits) Enabled() bool {
	return rl.MaxOrderUSD > 0 || rl.MaxOrderSize > 0
}
