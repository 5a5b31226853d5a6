package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete service configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address   string `hcl:"address,optional"`
	Port      int    `hcl:"port,optional"`
	AdminPort int    `hcl:"admin_port,optional"`
	LogLevel  string `hcl:"log_level,optional"`
	LogFile   string `hcl:"log_file,optional"`
}

// GameSettings tunes the poker tables and the daily reward
type GameSettings struct {
	TurnTimeoutSeconds int   `hcl:"turn_timeout_seconds,optional"`
	DailyMin           int64 `hcl:"daily_min,optional"`
	DailyMax           int64 `hcl:"daily_max,optional"`
	ExchangeGrrCost    int64 `hcl:"exchange_grr_cost,optional"`
	ExchangeCoinReward int64 `hcl:"exchange_coin_reward,optional"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Address:   "localhost",
			Port:      8080,
			AdminPort: 8081,
			LogLevel:  "info",
			LogFile:   "starstream.log",
		},
		Game: GameSettings{
			TurnTimeoutSeconds: 90,
			DailyMin:           50,
			DailyMax:           150,
			ExchangeGrrCost:    100,
			ExchangeCoinReward: 10,
		},
	}
}

// Load loads configuration from an HCL file, falling back to defaults when
// the file does not exist
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	def := Default()
	if config.Server.Address == "" {
		config.Server.Address = def.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = def.Server.Port
	}
	if config.Server.AdminPort == 0 {
		config.Server.AdminPort = def.Server.AdminPort
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = def.Server.LogLevel
	}
	if config.Server.LogFile == "" {
		config.Server.LogFile = def.Server.LogFile
	}
	if config.Game.TurnTimeoutSeconds == 0 {
		config.Game.TurnTimeoutSeconds = def.Game.TurnTimeoutSeconds
	}
	if config.Game.DailyMin == 0 {
		config.Game.DailyMin = def.Game.DailyMin
	}
	if config.Game.DailyMax == 0 {
		config.Game.DailyMax = def.Game.DailyMax
	}
	if config.Game.ExchangeGrrCost == 0 {
		config.Game.ExchangeGrrCost = def.Game.ExchangeGrrCost
	}
	if config.Game.ExchangeCoinReward == 0 {
		config.Game.ExchangeCoinReward = def.Game.ExchangeCoinReward
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.AdminPort < 1 || c.Server.AdminPort > 65535 || c.Server.AdminPort == c.Server.Port {
		return fmt.Errorf("invalid admin port: %d", c.Server.AdminPort)
	}
	if c.Game.TurnTimeoutSeconds < 0 {
		return fmt.Errorf("turn timeout must not be negative")
	}
	if c.Game.DailyMin <= 0 || c.Game.DailyMax < c.Game.DailyMin {
		return fmt.Errorf("daily reward range %d..%d is invalid", c.Game.DailyMin, c.Game.DailyMax)
	}
	if c.Game.ExchangeGrrCost <= 0 || c.Game.ExchangeCoinReward <= 0 {
		return fmt.Errorf("exchange rates must be positive")
	}
	return nil
}

// ServerAddress returns the gateway listen address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// AdminAddress returns the admin panel listen address
func (c *Config) AdminAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.AdminPort)
}
