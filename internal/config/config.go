package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string   `yaml:"log-level" env-default:"info"`
	HTTPPort          string   `yaml:"http-port" env-default:"9090"`
	SocketPort        string   `yaml:"socket-port" env-default:"9091"`
	Redis             Redis    `yaml:"redis"`
	SQLiteStoragePath string   `yaml:"sqlite-storage-path" env-default:"games.db"`
	Treasury          Treasury `yaml:"treasury"`
	GameWallet        string   `yaml:"game-wallet"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

// Treasury holds the fee policy and the wallet the fees are swept to.
// MinStakeForFees is in the smallest currency unit; stakes below it are
// settled without a fee.
type Treasury struct {
	Wallet          string `yaml:"wallet"`
	WinFeePercent   int64  `yaml:"win-fee-percent" env-default:"3"`
	DrawFeePercent  int64  `yaml:"draw-fee-percent" env-default:"1"`
	MinStakeForFees int64  `yaml:"min-stake-for-fees" env-default:"10000000"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
