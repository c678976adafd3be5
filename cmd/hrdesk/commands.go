package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/kingrea/hrdesk/internal/config"
	"github.com/kingrea/hrdesk/internal/hrapi"
	"github.com/kingrea/hrdesk/internal/logging"
	"github.com/kingrea/hrdesk/internal/refdata"
	"github.com/kingrea/hrdesk/internal/report"
)

const usage = `Usage:
  hrdesk                               open the terminal UI
  hrdesk export <out.xlsx>             write every employee to a workbook
  hrdesk profile <employee-id> <out.pdf>
                                       write one employee's profile sheet
  hrdesk refdata refresh               reload all reference lists and the snapshot
  hrdesk api-url <url>                 store the API base URL in .hrdesk/config.yaml`

// runCommand executes one subcommand and returns the process exit code.
func runCommand(cfg *config.Config, logger *logging.Logger, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch {
	case args[0] == "export" && len(args) == 2:
		err = exportCommand(ctx, cfg, logger, args[1])
	case args[0] == "profile" && len(args) == 3:
		err = profileCommand(ctx, cfg, logger, args[1], args[2])
	case args[0] == "refdata" && len(args) == 2 && args[1] == "refresh":
		err = refreshCommand(ctx, cfg, logger)
	case args[0] == "api-url" && len(args) == 2:
		if err = cfg.SetAPIBaseURL(args[1]); err == nil {
			fmt.Printf("API base URL set to %s\n", cfg.APIBaseURL())
			if cfg.Overridden(config.EnvBaseURL) {
				fmt.Printf("Note: %s is set and still takes precedence\n", config.EnvBaseURL)
			}
		}
	case args[0] == "help" || args[0] == "-h" || args[0] == "--help":
		fmt.Println(usage)
		return 0
	default:
		fmt.Fprintln(os.Stderr, usage)
		return 2
	}
	if err != nil {
		logger.Errorf(err, "%s failed", args[0])
		if msg := hrapi.ServerMessage(err); msg != "" {
			fmt.Fprintf(os.Stderr, "%s failed: %s\n", args[0], msg)
		} else {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", args[0], err)
		}
		return 1
	}
	return 0
}

func newClient(cfg *config.Config, logger *logging.Logger) (*hrapi.Client, error) {
	return hrapi.New(cfg.APIBaseURL(),
		hrapi.WithToken(cfg.Token()),
		hrapi.WithUploadsURL(cfg.UploadsURL()),
		hrapi.WithLogger(logger.Component("hrapi")),
	)
}

func exportCommand(ctx context.Context, cfg *config.Config, logger *logging.Logger, path string) error {
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	n, err := report.ExportEmployeesFile(ctx, client, path)
	if err != nil {
		return err
	}
	logger.Printf("exported %d employees to %s", n, path)
	fmt.Printf("Exported %d employee(s) to %s\n", n, path)
	return nil
}

func profileCommand(ctx context.Context, cfg *config.Config, logger *logging.Logger, id, path string) error {
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	emp, err := report.ProfileFile(ctx, client, id, path, logger.Component("report"))
	if err != nil {
		return err
	}
	fmt.Printf("Profile sheet for %s written to %s\n", emp.FullName(), path)
	return nil
}

// refreshCommand drops the snapshot's contents and fetches every
// collection again, rewriting the snapshot on success.
func refreshCommand(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	client, err := newClient(cfg, logger)
	if err != nil {
		return err
	}
	opts := []refdata.Option{refdata.WithLogger(logger.Component("refdata"))}
	if path := cfg.SnapshotPath(); path != "" {
		opts = append(opts, refdata.WithSnapshot(path))
	}
	service, err := refdata.New(client, opts...)
	if err != nil {
		logger.Errorf(err, "snapshot unreadable, refreshing without it")
		if service, err = refdata.New(client, opts[:1]...); err != nil {
			return err
		}
	}
	service.Invalidate()
	catalog, err := service.Load(ctx)
	if err != nil {
		return err
	}
	for _, kind := range hrapi.AllKinds {
		fmt.Printf("%-20s %d\n", kind.Label(), len(catalog.All(kind)))
	}
	return nil
}
