// Command synnergy-kv runs a single-node, in-memory key-value server
// speaking a RESP-compatible wire protocol, generalized from the teacher's
// cmd/synnergy root command shape.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"synnergy-kv/internal/adminhttp"
	"synnergy-kv/internal/config"
	"synnergy-kv/internal/server"
)

func main() {
	v := viper.New()
	root := &cobra.Command{
		Use:   "synnergy-kv",
		Short: "single-node in-memory key-value server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v)
		},
	}

	root.Flags().Int("port", 6379, "TCP port to listen on")
	root.Flags().String("replicaof", "", `"host port" of the primary to replicate from`)
	root.Flags().String("dir", "", "directory holding the optional snapshot file")
	root.Flags().String("dbfilename", "", "snapshot filename within --dir")
	root.Flags().String("admin-addr", "", "optional address for the read-only admin HTTP surface, e.g. :8088")
	root.Flags().String("log-level", "info", "logrus level: debug, info, warn, error")

	_ = v.BindPFlag("port", root.Flags().Lookup("port"))
	_ = v.BindPFlag("replicaof", root.Flags().Lookup("replicaof"))
	_ = v.BindPFlag("dir", root.Flags().Lookup("dir"))
	_ = v.BindPFlag("dbfilename", root.Flags().Lookup("dbfilename"))
	_ = v.BindPFlag("admin_addr", root.Flags().Lookup("admin-addr"))
	_ = v.BindPFlag("logging.level", root.Flags().Lookup("log-level"))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger := logrus.StandardLogger()
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	srv := server.New(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if adminAddr := v.GetString("admin_addr"); adminAddr != "" {
		admin := adminhttp.New(srv.Store(), srv.Hub(), srv.Role(), logger)
		go func() {
			if err := admin.ListenAndServe(ctx, adminAddr); err != nil {
				logger.WithError(err).Warn("admin http server stopped")
			}
		}()
	}

	logger.WithField("role", srv.Role()).Info("starting synnergy-kv")
	return srv.ListenAndServe(ctx)
}
