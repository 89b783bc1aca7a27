package model

// BotConfig is the single process-wide bot configuration record.
type BotConfig struct {
	TotalCapital  float64 `json:"total_capital" yaml:"total_capital"`
	RiskLow       float64 `json:"risk_low" yaml:"risk_low"`   // % of capital in unsafe zones
	RiskHigh      float64 `json:"risk_high" yaml:"risk_high"` // % of capital in safe zones
	MaxOperations int     `json:"max_operations" yaml:"max_operations"`
	Active        bool    `json:"active" yaml:"active"`
}

// DefaultBotConfig returns the configuration a fresh process starts with.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		TotalCapital:  100,
		RiskLow:       1.0,
		RiskHigh:      3.0,
		MaxOperations: 3,
		Active:        false,
	}
}

// BotStatus is the public projection served by GET /estado.
type BotStatus struct {
	Active        bool    `json:"active"`
	TotalCapital  float64 `json:"total_capital"`
	MaxOperations int     `json:"max_operations"`
}

// Status projects the config onto its public status view.
func (c BotConfig) Status() BotStatus {
	return BotStatus{
		Active:        c.Active,
		TotalCapital:  c.TotalCapital,
		MaxOperations: c.MaxOperations,
	}
}
