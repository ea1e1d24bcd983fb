package options

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dshills/chunklink/pkg/types"
)

// Environment variables read by FromEnv
const (
	EnvLogLevel           = "CHUNKLINK_LOG_LEVEL"
	EnvStrictDeprecations = "CHUNKLINK_STRICT_DEPRECATIONS"
	EnvMaxParallelFileOps = "CHUNKLINK_MAX_PARALLEL_FILE_OPS"
	EnvDBPath             = "CHUNKLINK_DB_PATH"
)

// Overrides is one precedence layer above the config file. Nil fields
// leave the lower layer untouched.
type Overrides struct {
	Input                []string
	LogLevel             *string
	StrictDeprecations   *bool
	MaxParallelFileOps   *int
	PreserveModules      *bool
	InlineDynamicImports *bool
	DBPath               *string
}

// FromEnv builds the environment layer. Variables from the given .env files
// are used only where the process environment does not set them. Missing
// .env files are skipped.
func FromEnv(envFiles ...string) (Overrides, error) {
	fileVars := make(map[string]string)
	for _, path := range envFiles {
		vars, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Overrides{}, fmt.Errorf("failed to read env file %s: %w", path, err)
		}
		for k, v := range vars {
			if _, seen := fileVars[k]; !seen {
				fileVars[k] = v
			}
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}
	return overridesFrom(lookup)
}

func overridesFrom(lookup func(string) (string, bool)) (Overrides, error) {
	var o Overrides

	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		o.LogLevel = &v
	}

	if v, ok := lookup(EnvStrictDeprecations); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return Overrides{}, types.ConfigError(types.CodeInvalidOption,
				"invalid value %q for %s: expected a boolean", v, EnvStrictDeprecations)
		}
		o.StrictDeprecations = &b
	}

	if v, ok := lookup(EnvMaxParallelFileOps); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return Overrides{}, types.ConfigError(types.CodeInvalidOption,
				"invalid value %q for %s: expected an integer", v, EnvMaxParallelFileOps)
		}
		o.MaxParallelFileOps = &n
	}

	if v, ok := lookup(EnvDBPath); ok && strings.TrimSpace(v) != "" {
		o.DBPath = &v
	}

	return o, nil
}
