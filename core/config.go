package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Address                   string
		DebugAddress              string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
		DisableReqLogs            bool
	}

	DatabaseConfig struct {
		Driver        string // postgres (lib/pq) | pgx | inmem
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Address  string // empty: locks are held in-process
		Password string
		DB       int
	}

	PairingConfig struct {
		Attempts      int
		RepeatPenalty *float64 // nil: engine default; 0 disables the penalty
		Jitter        *float64 // nil: engine default; 0 disables the noise
		LockTTL       time.Duration
		Schedule      string // cron spec; empty disables the weekly job
		NotifyByEmail bool
	}

	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		RollbarToken     string
		SendgridApiKey   string
		WorkDir          string

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Pairing  PairingConfig
	}
)

// Address returns the database "host:port".
func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

// NewConfig loads the configuration from the environment.
// Variables are prefixed with the current ENV: DEV (default), TEST, QA, PROD. eg. `DEV_SECRETKEY`.
// config/.env.<env> is loaded first if it exists.
func NewConfig() *Config {
	conf := viper.New()

	env := strings.ToUpper(CleanString(os.Getenv("ENV")))
	if env == "" {
		env = "DEV"
	}
	workDir := Getwd()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("build", "develop")
	conf.SetDefault("debug", env == "DEV")
	conf.SetDefault("testMode", env == "TEST")
	conf.SetDefault("appName", "MoringaPair")
	conf.SetDefault("secretKey", "5y+8q$w)c!ut3u@$-dzl@n(bu^1k0w7=y3w$9ax2vd&^f^s#hk")
	conf.SetDefault("frontendBaseURL", "http://localhost:5173")
	conf.SetDefault("defaultFromEmail", "MoringaPair <noreply@localhost>")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")

	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddress", ":8000")
	conf.SetDefault("serverDebugAddress", ":4000")
	conf.SetDefault("serverShutdownTimeout", 5*time.Second)
	conf.SetDefault("jwtExpirationDelta", time.Hour)
	conf.SetDefault("jwtRefreshExpirationDelta", 7*24*time.Hour)
	conf.SetDefault("disableReqLogs", false)

	conf.SetDefault("dbDriver", "postgres")
	conf.SetDefault("dbHost", "localhost")
	conf.SetDefault("dbPort", 5432)
	conf.SetDefault("dbName", "moringa_pair")
	conf.SetDefault("dbUser", "moringa")
	conf.SetDefault("dbPassword", "moringa")
	conf.SetDefault("dbAdminUser", "")
	conf.SetDefault("dbAdminPassword", "")
	conf.SetDefault("dbDisableTLS", env == "DEV" || env == "TEST")

	conf.SetDefault("redisAddress", "")
	conf.SetDefault("redisPassword", "")
	conf.SetDefault("redisDB", 0)

	conf.SetDefault("pairingAttempts", 10)
	conf.SetDefault("pairingRepeatPenalty", 50.0)
	conf.SetDefault("pairingJitter", 2.0)
	conf.SetDefault("pairingLockTTL", 30*time.Second)
	conf.SetDefault("pairingSchedule", "")
	conf.SetDefault("pairingNotifyByEmail", true)

	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	repeatPenalty, jitter := conf.GetFloat64("pairingRepeatPenalty"), conf.GetFloat64("pairingJitter")
	pairing := PairingConfig{
		Attempts:      conf.GetInt("pairingAttempts"),
		RepeatPenalty: &repeatPenalty,
		Jitter:        &jitter,
		LockTTL:       conf.GetDuration("pairingLockTTL"),
		Schedule:      conf.GetString("pairingSchedule"),
		NotifyByEmail: conf.GetBool("pairingNotifyByEmail"),
	}
	if err := pairing.Validate(); err != nil {
		log.Fatalf("config.pairing: %v", err)
	}

	fromEmail, err := mail.ParseAddress(conf.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Env:              env,
		Build:            conf.GetString("build"),
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		AppName:          conf.GetString("appName"),
		SecretKey:        conf.GetString("secretKey"),
		FrontendBaseURL:  conf.GetString("frontendBaseURL"),
		DefaultFromEmail: *fromEmail,
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		WorkDir:          workDir,
		Server: ServerConfig{
			Host:                      conf.GetString("serverHost"),
			Address:                   conf.GetString("serverAddress"),
			DebugAddress:              conf.GetString("serverDebugAddress"),
			ShutdownTimeout:           conf.GetDuration("serverShutdownTimeout"),
			JWTExpirationDelta:        conf.GetDuration("jwtExpirationDelta"),
			JWTRefreshExpirationDelta: conf.GetDuration("jwtRefreshExpirationDelta"),
			DisableReqLogs:            conf.GetBool("disableReqLogs"),
		},
		Database: DatabaseConfig{
			Driver:        conf.GetString("dbDriver"),
			Host:          conf.GetString("dbHost"),
			Port:          conf.GetInt("dbPort"),
			Name:          conf.GetString("dbName"),
			User:          conf.GetString("dbUser"),
			Password:      conf.GetString("dbPassword"),
			AdminUser:     conf.GetString("dbAdminUser"),
			AdminPassword: conf.GetString("dbAdminPassword"),
			DisableTLS:    conf.GetBool("dbDisableTLS"),
		},
		Redis: RedisConfig{
			Address:  conf.GetString("redisAddress"),
			Password: conf.GetString("redisPassword"),
			DB:       conf.GetInt("redisDB"),
		},
		Pairing: pairing,
	}
}

// Validate rejects the negative engine parameters.
func (pc PairingConfig) Validate() error {
	if pc.Attempts < 0 {
		return errors.Errorf("attempts must not be negative, got %d", pc.Attempts)
	}
	if pc.RepeatPenalty != nil && *pc.RepeatPenalty < 0 {
		return errors.Errorf("repeat penalty must not be negative, got %v", *pc.RepeatPenalty)
	}
	if pc.Jitter != nil && *pc.Jitter < 0 {
		return errors.Errorf("jitter must not be negative, got %v", *pc.Jitter)
	}
	if pc.LockTTL < 0 {
		return errors.Errorf("lock TTL must not be negative, got %s", pc.LockTTL)
	}
	return nil
}
