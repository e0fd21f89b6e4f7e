package cli

import (
	"context"
	"time"

	"github.com/secmon-lab/cerberus/pkg/cli/config"
	"github.com/secmon-lab/cerberus/pkg/utils/errutil"
	"github.com/secmon-lab/cerberus/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var timeout time.Duration
	var closer func()
	var cancel context.CancelFunc

	flags := []cli.Flag{
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Deadline applied to each command (0 disables)",
			Value:       5 * time.Minute,
			Sources:     cli.EnvVars("CERBERUS_TIMEOUT"),
			Destination: &timeout,
		},
	}
	flags = append(flags, loggerCfg.Flags()...)

	app := &cli.Command{
		Name:    "cerberus",
		Usage:   "Cerberus access-controlled document assistant",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closer = f

			ctx = logging.With(ctx, logging.Default())
			if timeout > 0 {
				ctx, cancel = context.WithTimeout(ctx, timeout)
			}

			logging.From(ctx).Debug("Starting cerberus", "logger", loggerCfg, "timeout", timeout)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if cancel != nil {
				cancel()
			}
			if closer != nil {
				closer()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdQuery(),
			cmdIngest(),
			cmdPurge(),
			cmdUser(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		return errutil.Handle(ctx, err, "failed to run app")
	}

	return nil
}
