package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/university-records/pkg/config"
	"github.com/noah-isme/university-records/pkg/database"
	appErrors "github.com/noah-isme/university-records/pkg/errors"
	"github.com/noah-isme/university-records/pkg/export"
	"github.com/noah-isme/university-records/pkg/logger"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// env holds the process boundary so commands can run against fakes.
type env struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() (*config.Config, error)
	newLogger  func(cfg *config.Config) (*zap.Logger, error)
	open       func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error)
	migrate    func(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) error
}

func defaultEnv() env {
	return env{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		loadConfig: config.Load,
		newLogger:  logger.New,
		open:       openApp,
		migrate:    database.Migrate,
	}
}

type cli struct {
	env    env
	cfg    *config.Config
	logger *zap.Logger
	app    *app

	format string
	output string
	crud   crudFlags
}

func execute(ctx context.Context, args []string, e env) int {
	c := &cli{env: e}
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetOut(e.stdout)
	root.SetErr(e.stderr)

	err := root.ExecuteContext(ctx)
	code := c.report(err)
	c.shutdown()
	return code
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "unirec",
		Short: "University records: groups, teachers, students, subjects and grades",
		Long: `unirec manages the university records store.

Entity CRUD uses the -a/-m flags:
  unirec -a create -m Group -n AD-101
  unirec -a create -m Student -n "Ann Lee" --group-id 1
  unirec -a create -m Grade --student-id 1 --subject-id 2 --grade 90
  unirec -a update -m Subject --id 2 --teacher-id 3
  unirec -a list -m Teacher
  unirec -a remove -m Student --id 4`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE:              c.runCRUD,
	}

	root.PersistentFlags().StringVarP(&c.format, "format", "f", export.FormatTable, "output format: table, json, csv or pdf")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", "", "write output to this file instead of stdout")
	c.crud.register(root)

	root.AddCommand(c.queryCommand(), c.seedCommand(), c.migrateCommand(), c.serveCommand())
	return root
}

// setup loads configuration and the logger; the database is opened lazily.
func (c *cli) setup(_ *cobra.Command, _ []string) error {
	cfg, err := c.env.loadConfig()
	if err != nil {
		return system(err, "load config")
	}
	log, err := c.env.newLogger(cfg)
	if err != nil {
		return system(err, "init logger")
	}
	c.cfg = cfg
	c.logger = log
	return nil
}

// services opens the store on first use.
func (c *cli) services(ctx context.Context) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}
	a, err := c.env.open(ctx, c.cfg, c.logger)
	if err != nil {
		return nil, system(err, "open store")
	}
	c.app = a
	return a, nil
}

func (c *cli) shutdown() {
	if c.app != nil && c.app.close != nil {
		if err := c.app.close(); err != nil && c.logger != nil {
			c.logger.Warn("close store", zap.Error(err))
		}
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// report prints err for a human and picks the exit code. Expected outcomes
// such as a missing record get one line and no log noise.
func (c *cli) report(err error) int {
	if err == nil {
		return exitSuccess
	}

	var appErr *appErrors.Error
	if !errors.As(err, &appErr) {
		// flag and argument errors raised by cobra
		fmt.Fprintf(c.env.stderr, "error: %v\n", err)
		return exitUserError
	}

	switch appErr.Code {
	case appErrors.ErrNotFound.Code, appErrors.ErrNoData.Code, appErrors.ErrUsage.Code, appErrors.ErrValidation.Code:
		fmt.Fprintln(c.env.stderr, appErr.Message)
		return exitUserError
	case appErrors.ErrConstraint.Code:
		fmt.Fprintf(c.env.stderr, "constraint violation (%s): %s\n", appErr.Kind, appErr.Message)
		return exitUserError
	}

	if c.logger != nil {
		c.logger.Error("command failed", zap.Error(err))
	}
	fmt.Fprintf(c.env.stderr, "error: %v\n", err)
	return exitSysError
}

// write renders data in the selected format to stdout or --output.
func (c *cli) write(data export.Dataset) error {
	renderer, err := export.ForFormat(c.format)
	if err != nil {
		return usageErr("%v", err)
	}
	if export.Binary(c.format) && c.output == "" {
		return usageErr("%s output needs --output <file>", c.format)
	}
	body, err := renderer.Render(data)
	if err != nil {
		return system(err, "render output")
	}
	if c.output == "" {
		_, err = c.env.stdout.Write(body)
		return err
	}
	if err := os.WriteFile(c.output, body, 0o644); err != nil {
		return system(err, "write output")
	}
	fmt.Fprintf(c.env.stderr, "wrote %s\n", c.output)
	return nil
}

func usageErr(format string, args ...any) error {
	return appErrors.Clone(appErrors.ErrUsage, fmt.Sprintf(format, args...))
}

func system(err error, action string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, action)
}
