// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	migrateOnly    = pflag.Bool("migrate-only", false, "Runs database migrations and exits")
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// MigrateOnly reports whether the process should exit after migrations.
func MigrateOnly() bool {
	return *migrateOnly
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.domain", "host_domain")
	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")

	v.BindEnv("session.secret", "session_secret")
	v.BindEnv("session.max_age", "session_max_age")

	v.BindEnv("redis.addr", "redis_addr")
	v.BindEnv("redis.password", "redis_password")
	v.BindEnv("redis.db", "redis_db")

	v.BindEnv("discord.token", "discord_token")
	v.BindEnv("discord.guild_id", "discord_guild_id")
	v.BindEnv("discord.log_channel", "discord_log_channel")
	v.BindEnv("discord.report_log_channel", "discord_report_log_channel")
	v.BindEnv("discord.invite_url", "discord_invite_url")
	v.BindEnv("discord.linked_roles", "discord_linked_roles")

	v.BindEnv("discord.oauth.client_id", "discord_oauth_client_id")
	v.BindEnv("discord.oauth.client_secret", "discord_oauth_client_secret")
	v.BindEnv("discord.oauth.redirect_url", "discord_oauth_redirect_url")

	v.BindEnv("storage.account_id", "storage_account_id")
	v.BindEnv("storage.access_key_id", "storage_access_key_id")
	v.BindEnv("storage.secret_access_key", "storage_secret_access_key")
	v.BindEnv("storage.bucket", "storage_bucket")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("signup.invite_only", "signup_invite_only")

	v.BindEnv("sentry.dsn", "sentry_dsn")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("session.max_age", 12*time.Hour)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("discord.invite_url", "https://discord.gg/xTs2HbC")

	v.SetDefault("upload.max_size", 50)

	v.SetDefault("signup.invite_only", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("session.secret") == "" {
		fmt.Println("WARNING: You haven't set a session secret, so one has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random session secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	if v.GetDuration("session.max_age") <= 0 {
		return errors.New("session.max_age must be bigger than 0")
	}

	if v.GetString("redis.addr") == "" {
		return errors.New("redis address can't be empty")
	}

	if v.GetString("discord.token") == "" {
		return errors.New("discord bot token can't be empty")
	}

	if v.GetString("discord.guild_id") == "" {
		return errors.New("discord guild id can't be empty")
	}

	if v.GetString("discord.log_channel") == "" {
		return errors.New("discord log channel id can't be empty")
	}

	if v.GetString("discord.report_log_channel") == "" {
		return errors.New("discord report log channel id can't be empty")
	}

	if v.GetString("discord.oauth.client_id") == "" || v.GetString("discord.oauth.client_secret") == "" {
		zap.L().Warn("Discord OAuth credentials missing, account linking will be unavailable")
	}

	if v.GetString("storage.account_id") == "" {
		return errors.New("storage account id can't be empty")
	}
	if v.GetString("storage.access_key_id") == "" {
		return errors.New("storage access key id can't be empty")
	}
	if v.GetString("storage.secret_access_key") == "" {
		return errors.New("storage secret access key can't be empty")
	}
	if v.GetString("storage.bucket") == "" {
		return errors.New("storage bucket can't be empty")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetString("sentry.dsn") == "" {
		zap.L().Warn("No Sentry DSN configured, unexpected errors won't be reported")
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}
