// Command gen compiles the application fixture into container_gen.go.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/junioryono/keel"
	"github.com/junioryono/keel/compiler"
	"github.com/junioryono/keel/internal/testutil"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gen:", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := compiler.LoadConfig("keel.yaml", ".env")
	if err != nil {
		return err
	}

	reg, err := keel.Build(testutil.AppModule())
	if err != nil {
		return err
	}
	// struct values have no source form
	reg.Remove(testutil.AppConfigID)

	c, err := compiler.New(cfg, compiler.WithLogger(logger))
	if err != nil {
		return err
	}
	res, err := c.Compile(reg)
	if err != nil {
		return err
	}
	return c.WriteFile(res)
}
