package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	jsonbinpack "github.com/sourcemeta/jsonbinpack-sub005"
	"github.com/sourcemeta/jsonbinpack-sub005/codec"
	"github.com/sourcemeta/jsonbinpack-sub005/jsonschema"
)

// envPrefix namespaces environment overrides, e.g. JSONBINPACK_LOG_LEVEL.
const envPrefix = "JSONBINPACK"

// newFlagSet returns a flag set carrying the flags every subcommand accepts.
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "YAML file with default flag values")
	fs.String("log-level", "warn", "log level: debug, info, warn or error")
	fs.String("log-format", "text", "log format: text or json")
	fs.String("dialect", jsonschema.Draft2020_12, "dialect of schemas that do not declare $schema")
	fs.StringSlice("resolve", nil, "schema files that custom metaschemas are resolved from")
	fs.Bool("keep-refs", false, "do not inline local $refs")
	fs.Uint64("cache-size", codec.DefaultCacheSize, "string cache budget in bytes")
	fs.StringP("output", "o", "", "write to this file instead of standard output")
	fs.BoolP("help", "h", false, "show help")
	return fs
}

// addPlanFlags adds the flags selecting the plan of the codec subcommands.
func addPlanFlags(fs *pflag.FlagSet) {
	fs.String("schema", "", "compile this schema file")
	fs.String("plan", "", "load this encoding descriptor file")
	fs.Bool("compress", false, "wrap the binary stream in zstd")
}

// bind layers flags over the environment over the config file.
func bind(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

func newLogger(v *viper.Viper, out io.Writer) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(out)
	level, err := logrus.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	l.SetLevel(level)
	switch format := v.GetString("log-format"); format {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
	return l, nil
}

func options(v *viper.Viper, logger logrus.FieldLogger) (jsonbinpack.Options, error) {
	o := jsonbinpack.Options{
		DefaultDialect: v.GetString("dialect"),
		KeepRefs:       v.GetBool("keep-refs"),
		CacheSize:      v.GetUint64("cache-size"),
		Logger:         logger,
	}
	if files := v.GetStringSlice("resolve"); len(files) > 0 {
		r, err := jsonschema.LoadFiles(files...)
		if err != nil {
			return o, err
		}
		o.Resolver = r
	}
	return o, nil
}

var errPlanSource = errors.New("exactly one of --schema or --plan is required")

func loadPlan(ctx context.Context, v *viper.Viper, opts jsonbinpack.Options) (*jsonbinpack.Plan, error) {
	schema, plan := v.GetString("schema"), v.GetString("plan")
	switch {
	case (schema == "") == (plan == ""):
		return nil, errPlanSource
	case plan != "":
		return jsonbinpack.LoadPlan(plan)
	default:
		return jsonbinpack.CompileFile(ctx, schema, opts)
	}
}
