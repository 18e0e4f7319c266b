// Package config parses the command lines of the sender and the viewer.
// Every flag can also come from an SCVR_* environment variable, e.g.
// --compression-format from SCVR_COMPRESSION_FORMAT, optionally loaded
// from a .env file. Flags given on the command line win.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes the environment variable of every flag.
const EnvPrefix = "SCVR_"

const defaultEnvFile = ".env"

// EnvKey returns the environment variable that sets flag name.
func EnvKey(name string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// loadEnvFile loads path into the environment without overriding
// variables that are already set. A missing default file is fine.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// applyEnv sets every flag not given on the command line from its
// environment variable.
func applyEnv(flags *pflag.FlagSet) error {
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "env-file" {
			return
		}
		v, ok := os.LookupEnv(EnvKey(f.Name))
		if !ok {
			return
		}
		if err := flags.Set(f.Name, v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvKey(f.Name), err))
		}
	})
	return errors.Join(errs...)
}

// parse parses args, loads the env file and applies the environment.
func parse(flags *pflag.FlagSet, args []string) error {
	envFile := flags.String("env-file", defaultEnvFile, "file with "+EnvPrefix+"* variables to load")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if err := loadEnvFile(*envFile, flags.Changed("env-file")); err != nil {
		return err
	}
	return applyEnv(flags)
}
