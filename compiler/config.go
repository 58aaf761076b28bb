package compiler

import (
	"errors"
	"fmt"
	"go/token"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// InvalidBehavior selects what happens to definitions that cannot be
// validated at compile time.
type InvalidBehavior string

const (
	// InvalidFail fails the build, reporting every invalid definition.
	InvalidFail InvalidBehavior = "fail"

	// InvalidStub compiles invalid definitions to accessors that return
	// the error when called.
	InvalidStub InvalidBehavior = "stub"
)

// Config controls code generation.
type Config struct {
	// Package is the name of the generated package.
	Package string `yaml:"package"`

	// PackagePath is the import path of the generated package. Types and
	// functions declared there are referenced without qualifier.
	PackagePath string `yaml:"package_path"`

	// TypeName names the generated container type.
	TypeName string `yaml:"type_name"`

	// Output is the file WriteFile writes to.
	Output string `yaml:"output"`

	// SingletonDefault caches definitions with the Default lifetime.
	SingletonDefault bool `yaml:"singleton_default"`

	// ZeroConfig compiles parameter types that have no definition but can
	// be discovered.
	ZeroConfig bool `yaml:"zero_config"`

	// Strict rejects definitions of unknown kinds instead of offering them
	// to the fallback.
	Strict bool `yaml:"strict"`

	InvalidBehavior InvalidBehavior `yaml:"invalid_behavior"`
}

// DefaultConfig returns the configuration used for omitted keys.
func DefaultConfig() Config {
	return Config{
		TypeName:        "Container",
		ZeroConfig:      true,
		Strict:          true,
		InvalidBehavior: InvalidFail,
	}
}

// LoadConfig reads a YAML config file. ${VAR} references are expanded from
// envFiles first, then from the process environment. Missing env files are
// skipped.
func LoadConfig(path string, envFiles ...string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var existing []string
	for _, f := range envFiles {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		existing = append(existing, f)
	}

	env := map[string]string{}
	if len(existing) > 0 {
		if env, err = godotenv.Read(existing...); err != nil {
			return Config{}, fmt.Errorf("read env files: %w", err)
		}
	}
	return ParseConfig(data, env)
}

// ParseConfig decodes YAML config data over DefaultConfig, expanding ${VAR}
// references from env and then the process environment.
func ParseConfig(data []byte, env map[string]string) (Config, error) {
	expanded := os.Expand(string(data), func(key string) string {
		if v, ok := env[key]; ok {
			return v
		}
		return os.Getenv(key)
	})

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the config can produce a compilable file.
func (c *Config) Validate() error {
	if c.TypeName == "" {
		c.TypeName = "Container"
	}
	if c.InvalidBehavior == "" {
		c.InvalidBehavior = InvalidFail
	}

	switch {
	case !token.IsIdentifier(c.Package):
		return fmt.Errorf("config: package %q is not a valid identifier", c.Package)
	case c.PackagePath == "":
		return errors.New("config: package_path is required")
	case !token.IsIdentifier(c.TypeName):
		return fmt.Errorf("config: type_name %q is not a valid identifier", c.TypeName)
	case c.InvalidBehavior != InvalidFail && c.InvalidBehavior != InvalidStub:
		return fmt.Errorf("config: invalid_behavior must be %q or %q, got %q", InvalidFail, InvalidStub, c.InvalidBehavior)
	}
	return nil
}
