package main

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/eringen/postmill"
)

const (
	envPrefix       = "POSTMILL"
	defaultTestPort = 4173
)

// loadConfig reads postmill.yaml (or path) and POSTMILL_* environment
// variables. Unset fields stay zero so Config.Prepare can apply defaults.
func loadConfig(path string) (postmill.Config, *viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so bind every field.
	for _, key := range configKeys() {
		if err := v.BindEnv(key); err != nil {
			return postmill.Config{}, nil, err
		}
	}
	v.SetDefault("test_port", defaultTestPort)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("postmill")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return postmill.Config{}, nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg postmill.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return postmill.Config{}, nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, v, nil
}

func configKeys() []string {
	t := reflect.TypeOf(postmill.Config{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("mapstructure"); tag != "" {
			keys = append(keys, tag)
		}
	}
	return keys
}

// newLogger builds the console logger every command uses. Each process gets
// a run_id so interleaved CI logs can be told apart.
func newLogger(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(lvl).With().
		Timestamp().
		Str("run_id", uuid.NewString()).
		Logger(), nil
}
