package app

import (
	"fmt"
	"os"

	"service-fulfillment/internal/config"
	"service-fulfillment/internal/logx"
)

// NewLogger builds the JSON stdout logger at the configured level.
func NewLogger(cfg *config.Config) (logx.Logger, error) {
	level, err := logx.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return logx.NewJSON(os.Stdout, level), nil
}
