package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/openpasswd/openpasswd/internal/flagx"
	"github.com/openpasswd/openpasswd/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON
// configuration files. Interval fields use timex.Duration, which accepts
// both strings such as "15m" and integer nanoseconds. After unmarshalling,
// its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr                  string         `json:"endpoint_addr"`
	DatabaseDSN                   string         `json:"database_dsn"`
	RedisURL                      string         `json:"redis_url"`
	AccessTokenSecret             string         `json:"access_token_secret"`
	RefreshTokenSecret            string         `json:"refresh_token_secret"`
	AccessTokenValidityDuration   timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration  timex.Duration `json:"refresh_token_validity_duration"`
	RecoveryTokenValidityDuration timex.Duration `json:"recovery_token_validity_duration"`
	CookieDomain                  string         `json:"cookie_domain"`
	SMTPHost                      string         `json:"smtp_host"`
	SMTPPort                      int            `json:"smtp_port"`
	SMTPUsername                  string         `json:"smtp_username"`
	SMTPPassword                  string         `json:"smtp_password"`
	MailFromName                  string         `json:"mail_from_name"`
	MailFromAddr                  string         `json:"mail_from_addr"`
	LoginRateRPS                  float64        `json:"login_rate_rps"`
	LoginRateBurst                int            `json:"login_rate_burst"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If no flag is set, nothing is
// loaded. An unreadable or invalid file panics: a config file that was
// asked for but cannot be used is a startup error.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.RedisURL = c.RedisURL
	config.AccessTokenSecret = c.AccessTokenSecret
	config.RefreshTokenSecret = c.RefreshTokenSecret
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.RefreshTokenValidityDuration = time.Duration(c.RefreshTokenValidityDuration.Duration)
	config.RecoveryTokenValidityDuration = time.Duration(c.RecoveryTokenValidityDuration.Duration)
	config.CookieDomain = c.CookieDomain
	config.SMTPHost = c.SMTPHost
	config.SMTPPort = c.SMTPPort
	config.SMTPUsername = c.SMTPUsername
	config.SMTPPassword = c.SMTPPassword
	config.MailFromName = c.MailFromName
	config.MailFromAddr = c.MailFromAddr
	config.LoginRateRPS = c.LoginRateRPS
	config.LoginRateBurst = c.LoginRateBurst
}
