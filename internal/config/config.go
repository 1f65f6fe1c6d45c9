// Package config loads schemadiff settings from a YAML file, a .env file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/koustreak/schemadiff/internal/compare"
	"github.com/koustreak/schemadiff/internal/database"
	"github.com/koustreak/schemadiff/internal/errs"
	"github.com/koustreak/schemadiff/internal/filestore"
	"github.com/koustreak/schemadiff/internal/logger"
	"github.com/koustreak/schemadiff/internal/server"
)

// FileName is the config file looked up in the load directory, without extension.
const FileName = "schemadiff"

// Config holds all configuration for the application.
type Config struct {
	// One and Two are the databases being compared.
	One database.Config `mapstructure:"one"`
	Two database.Config `mapstructure:"two"`

	Compare CompareConfig    `mapstructure:"compare"`
	Log     logger.Config    `mapstructure:"log"`
	Storage filestore.Config `mapstructure:"storage"`
	Server  server.Config    `mapstructure:"server"`
}

// CompareConfig holds the default comparison options.
type CompareConfig struct {
	OneAlias         string        `mapstructure:"one_alias" default:"one"`
	TwoAlias         string        `mapstructure:"two_alias" default:"two"`
	Ignores          []string      `mapstructure:"ignores"`
	IgnoreInspectors []string      `mapstructure:"ignore_inspectors"`
	Timeout          time.Duration `mapstructure:"timeout" default:"5m"`
	Format           string        `mapstructure:"format" default:"json"`
}

// Load reads <dir>/.env and an optional <dir>/schemadiff.{yaml,yml,json},
// then applies environment variables such as ONE_DSN or COMPARE_IGNORES.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = "."
	}

	// A missing .env is normal outside development.
	_ = godotenv.Overload(filepath.Join(dir, ".env"))

	v := viper.New()
	bindValues(v, Config{}, "")

	v.SetConfigName(FileName)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to decode config", err)
	}
	return &cfg, nil
}

// bindValues registers every mapstructure key with its default tag so that
// AutomaticEnv can resolve it.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		v.SetDefault(key, field.Tag.Get("default"))
	}
}

// Options converts the configured defaults into comparison options.
func (c CompareConfig) Options() compare.Options {
	return compare.Options{
		OneAlias:         c.OneAlias,
		TwoAlias:         c.TwoAlias,
		Ignores:          c.Ignores,
		IgnoreInspectors: c.IgnoreInspectors,
	}
}
