package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/syncwatch/server/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
	}
	publicURL = configVar[string]{
		envKey:       "SERVER_PUBLIC_URL",
		flagKey:      "public-url",
		defaultValue: "http://localhost:8080",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
	}
	roomsLimit = configVar[int]{
		envKey:       "SERVER_ROOMS_LIMIT",
		flagKey:      "rooms-limit",
		defaultValue: 50,
	}
	membersLimit = configVar[int]{
		envKey:       "SERVER_MEMBERS_LIMIT",
		flagKey:      "members-limit",
		defaultValue: 20,
	}
	roomTimeoutMinutes = configVar[int]{
		envKey:       "SERVER_ROOM_TIMEOUT_MINUTES",
		flagKey:      "room-timeout-minutes",
		defaultValue: 60,
	}
	cleanupIntervalMinutes = configVar[int]{
		envKey:       "SERVER_CLEANUP_INTERVAL_MINUTES",
		flagKey:      "cleanup-interval-minutes",
		defaultValue: 5,
	}
	seekThresholdSeconds = configVar[int]{
		envKey:       "SERVER_SEEK_THRESHOLD_SECONDS",
		flagKey:      "seek-threshold-seconds",
		defaultValue: 2,
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
	}
)

func loadAppConfig() *app.AppConfig {
	pflag.String(host.flagKey, host.defaultValue, "Server host")
	pflag.Int(port.flagKey, port.defaultValue, "Server port")
	pflag.String(publicURL.flagKey, publicURL.defaultValue, "Public base URL used in join links")
	pflag.String(logLevel.flagKey, logLevel.defaultValue, "Logging level")
	pflag.Int(roomsLimit.flagKey, roomsLimit.defaultValue, "Maximum number of rooms")
	pflag.Int(membersLimit.flagKey, membersLimit.defaultValue, "Maximum number of members in a room")
	pflag.Int(roomTimeoutMinutes.flagKey, roomTimeoutMinutes.defaultValue, "Minutes before an empty room is reaped")
	pflag.Int(cleanupIntervalMinutes.flagKey, cleanupIntervalMinutes.defaultValue, "Minutes between stale room sweeps")
	pflag.Int(seekThresholdSeconds.flagKey, seekThresholdSeconds.defaultValue, "Position jump in seconds treated as a seek")
	pflag.String(redisHost.flagKey, redisHost.defaultValue, "Redis host")
	pflag.Int(redisPort.flagKey, redisPort.defaultValue, "Redis port")
	pflag.String(redisPassword.flagKey, redisPassword.defaultValue, "Redis password")
	pflag.Parse()

	viper.BindPFlags(pflag.CommandLine)

	viper.BindEnv(host.flagKey, host.envKey)
	viper.BindEnv(port.flagKey, port.envKey)
	viper.BindEnv(publicURL.flagKey, publicURL.envKey)
	viper.BindEnv(logLevel.flagKey, logLevel.envKey)
	viper.BindEnv(roomsLimit.flagKey, roomsLimit.envKey)
	viper.BindEnv(membersLimit.flagKey, membersLimit.envKey)
	viper.BindEnv(roomTimeoutMinutes.flagKey, roomTimeoutMinutes.envKey)
	viper.BindEnv(cleanupIntervalMinutes.flagKey, cleanupIntervalMinutes.envKey)
	viper.BindEnv(seekThresholdSeconds.flagKey, seekThresholdSeconds.envKey)
	viper.BindEnv(redisHost.flagKey, redisHost.envKey)
	viper.BindEnv(redisPort.flagKey, redisPort.envKey)
	viper.BindEnv(redisPassword.flagKey, redisPassword.envKey)

	viper.SetDefault(host.flagKey, host.defaultValue)
	viper.SetDefault(port.flagKey, port.defaultValue)
	viper.SetDefault(publicURL.flagKey, publicURL.defaultValue)
	viper.SetDefault(logLevel.flagKey, logLevel.defaultValue)
	viper.SetDefault(roomsLimit.flagKey, roomsLimit.defaultValue)
	viper.SetDefault(membersLimit.flagKey, membersLimit.defaultValue)
	viper.SetDefault(roomTimeoutMinutes.flagKey, roomTimeoutMinutes.defaultValue)
	viper.SetDefault(cleanupIntervalMinutes.flagKey, cleanupIntervalMinutes.defaultValue)
	viper.SetDefault(seekThresholdSeconds.flagKey, seekThresholdSeconds.defaultValue)
	viper.SetDefault(redisHost.flagKey, redisHost.defaultValue)
	viper.SetDefault(redisPort.flagKey, redisPort.defaultValue)
	viper.SetDefault(redisPassword.flagKey, redisPassword.defaultValue)

	return &app.AppConfig{
		Host:                   viper.GetString(host.flagKey),
		Port:                   viper.GetInt(port.flagKey),
		PublicURL:              viper.GetString(publicURL.flagKey),
		LogLevel:               viper.GetString(logLevel.flagKey),
		RoomsLimit:             viper.GetInt(roomsLimit.flagKey),
		MembersLimit:           viper.GetInt(membersLimit.flagKey),
		RoomTimeoutMinutes:     viper.GetInt(roomTimeoutMinutes.flagKey),
		CleanupIntervalMinutes: viper.GetInt(cleanupIntervalMinutes.flagKey),
		SeekThresholdSeconds:   viper.GetInt(seekThresholdSeconds.flagKey),
		RedisHost:              viper.GetString(redisHost.flagKey),
		RedisPort:              viper.GetInt(redisPort.flagKey),
		RedisPassword:          viper.GetString(redisPassword.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	log.Fatal(app.Run(ctx, appConfig))
}
