package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"roster-server-go/config"
	"roster-server-go/db"
	"roster-server-go/handlers"
	"roster-server-go/logger"
	"roster-server-go/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := buildApp().Run(os.Args); err != nil {
		logger.Get().WithError(err).Fatal("roster-server stopped")
	}
}

func buildApp() *cli.App {
	app := cli.NewApp()
	app.Name = "roster-server"
	app.Usage = "HTTP service for students and the groups they belong to"
	app.Commands = []cli.Command{
		serveCommand(),
		importCommand(),
	}
	// running without a sub-command starts the server
	app.Action = serve
	return app
}

func serveCommand() cli.Command {
	return cli.Command{
		Name:   "serve",
		Usage:  "run the HTTP API",
		Action: serve,
	}
}

func importCommand() cli.Command {
	const (
		fileFlagName  = "file"
		groupFlagName = "group"
	)

	return cli.Command{
		Name:  "import",
		Usage: "import students from an xlsx roster",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  fileFlagName,
				Usage: "path to the xlsx workbook; the first row names the fields",
			},
			cli.StringFlag{
				Name:  groupFlagName,
				Usage: "id of an existing group to put every imported student in",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.String(fileFlagName)
			if path == "" {
				return errors.Errorf("flag '--%s' was not specified", fileFlagName)
			}
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			store, err := db.NewStore(ctx, conf)
			if err != nil {
				return errors.Wrap(err, "connecting to store")
			}
			defer closeStore(store)

			f, err := os.Open(path)
			if err != nil {
				return errors.Wrapf(err, "opening roster '%s'", path)
			}
			defer f.Close()

			records := newRecordService(store, conf)
			n, err := records.ImportStudents(ctx, f, c.String(groupFlagName))
			if err != nil {
				return errors.Wrapf(err, "importing roster '%s'", path)
			}
			logger.WithPrefix("import").Infof("Imported %d students from %s", n, path)
			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	conf, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Configure(conf.LogLevel, conf.LogFormat)
	return conf, nil
}

func newRecordService(store db.Store, conf *config.Config) *service.RecordService {
	return service.NewRecordService(store, service.Options{
		ListLimit:      conf.ListLimit,
		GroupListLimit: conf.GroupListLimit,
	})
}

func closeStore(store db.Store) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		logger.WithPrefix("db").WithError(err).Warn("Error closing store")
	}
}

func serve(*cli.Context) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.WithPrefix("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// one store client for the life of the process, shared by every request
	store, err := db.NewStore(ctx, conf)
	if err != nil {
		return errors.Wrap(err, "connecting to store")
	}
	defer closeStore(store)

	if conf.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	apiHandler := handlers.NewAPIHandler(newRecordService(store, conf), logger.WithPrefix("api"))
	srv := &http.Server{
		Addr:    conf.ListenAddr,
		Handler: handlers.SetupRouter(apiHandler),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("backend", conf.StoreBackend).Infof("Starting server on %s", conf.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "running server")
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return errors.Wrap(srv.Shutdown(shutdownCtx), "shutting down server")
}
