package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// AppConfig wraps viper with the typed getters both binaries use. Defaults
// are always set so a missing config file is not an error.
type AppConfig struct {
	v *viper.Viper
}

func NewAppConfig() *AppConfig {
	c := &AppConfig{v: viper.New()}

	setDefaults(c.v)

	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timezone", "Asia/Taipei")

	v.SetDefault("server.api_addr", ":8088")
	v.SetDefault("server.db", "invitations.db")
	v.SetDefault("server.staff_file", "staff.yml")
	v.SetDefault("server.schedule_file", "schedule.yml")

	v.SetDefault("client.addr", ":8080")
	v.SetDefault("client.server_url", "http://localhost:8088/api")
	v.SetDefault("client.state_file", "state.yml")
	v.SetDefault("client.sync_interval", time.Minute*2)
	v.SetDefault("client.sync_delay", time.Millisecond*500)
	v.SetDefault("client.ping_interval", time.Second*30)
	v.SetDefault("client.request_timeout", time.Second*15)
	v.SetDefault("client.cache_ttl", time.Minute)

	v.SetDefault("debug", false)
}

func (c *AppConfig) Load(filename string) bool {
	c.v.SetConfigFile(filename)

	if err := c.v.ReadInConfig(); err != nil {
		slog.Info(fmt.Sprintf("error loading config: %s", err.Error()))

		return false
	}

	return true
}

func (c *AppConfig) Bool(key string) bool {
	return c.v.GetBool(key)
}

func (c *AppConfig) String(key string) string {
	return c.v.GetString(key)
}

func (c *AppConfig) Int(key string) int {
	return c.v.GetInt(key)
}

func (c *AppConfig) Duration(key string) time.Duration {
	return c.v.GetDuration(key)
}

func (c *AppConfig) Set(key string, v any) {
	c.v.Set(key, v)
}

func (c *AppConfig) Debug() bool {
	return c.v.GetBool("debug")
}

// Location resolves the canonical timezone; every "today" computation goes
// through it.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.v.GetString("timezone"))
	if err != nil {
		slog.Error("invalid timezone, falling back to UTC", slog.Any("error", err))

		return time.UTC
	}

	return loc
}

// Now is the injected clock: current time in the configured zone.
func (c *AppConfig) Now() time.Time {
	return time.Now().In(c.Location())
}

func (c *AppConfig) ServerApiAddr() string {
	return c.v.GetString("server.api_addr")
}

func (c *AppConfig) ServerDB() string {
	return c.v.GetString("server.db")
}

func (c *AppConfig) StaffFile() string {
	return c.v.GetString("server.staff_file")
}

func (c *AppConfig) ScheduleFile() string {
	return c.v.GetString("server.schedule_file")
}

func (c *AppConfig) ClientAddr() string {
	return c.v.GetString("client.addr")
}

func (c *AppConfig) ServerURL() string {
	return c.v.GetString("client.server_url")
}

func (c *AppConfig) StateFile() string {
	return c.v.GetString("client.state_file")
}

func (c *AppConfig) SyncInterval() time.Duration {
	return c.v.GetDuration("client.sync_interval")
}

func (c *AppConfig) SyncDelay() time.Duration {
	return c.v.GetDuration("client.sync_delay")
}

func (c *AppConfig) PingInterval() time.Duration {
	return c.v.GetDuration("client.ping_interval")
}

func (c *AppConfig) RequestTimeout() time.Duration {
	return c.v.GetDuration("client.request_timeout")
}

func (c *AppConfig) CacheTTL() time.Duration {
	return c.v.GetDuration("client.cache_ttl")
}
