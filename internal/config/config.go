package config

import "github.com/kelseyhightower/envconfig"

type Config struct {
	Server Server
	DB     DB
	Redis  Redis
	Game   Game
}

type Server struct {
	Addr           string `envconfig:"ADDR" default:":8080"`
	TrustedProxies string `envconfig:"TRUSTED_PROXIES" default:"127.0.0.1,::1"`
	AdminToken     string `envconfig:"ADMIN_TOKEN"`
}

type DB struct {
	Path string `envconfig:"DB_PATH" default:"vleague.db"`
}

// Redis is optional; when Addr is empty the process runs as a permanent
// leader instead of competing for the advisory lock.
type Redis struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `envconfig:"REDIS_PASSWORD"`
}

type Game struct {
	LeagueFile      string `envconfig:"LEAGUE_FILE"`
	IntervalMinutes int    `envconfig:"MATCH_INTERVAL_MINUTES" default:"3"`
	Timezone        string `envconfig:"DISPLAY_TZ" default:"UTC"`
}

func New() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}
	return &c, nil
}
