package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"Orbit/backend/go/internal/config"
	"Orbit/backend/go/internal/database/milvus"
	"Orbit/backend/go/internal/database/mysql"
	"Orbit/backend/go/internal/database/redis"
	vectorservice "Orbit/backend/go/internal/vector_db/service"
	"Orbit/backend/go/pkg/logger"

	"github.com/spf13/cobra"
)

func main() {
	var (
		kind       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:          "vector_indexer",
		Short:        "Bulk-index users and knowledge base entries into Milvus",
		Long:         "Scans MySQL and embeds every user and/or knowledge base entry into the vector store. Re-running appends duplicates.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds, err := expandKind(kind)
			if err != nil {
				return err
			}
			return run(cmd.Context(), configPath, kinds)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "all", "what to index: users, knowledge or all")
	cmd.Flags().StringVar(&configPath, "config", config.ResolvePath(), "path to config.yaml")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func expandKind(kind string) ([]string, error) {
	switch kind {
	case "all":
		return []string{vectorservice.KindUsers, vectorservice.KindKnowledge}, nil
	case vectorservice.KindUsers, vectorservice.KindKnowledge:
		return []string{kind}, nil
	default:
		return nil, fmt.Errorf("%w: %q", vectorservice.ErrUnknownIndexKind, kind)
	}
}

func run(ctx context.Context, configPath string, kinds []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(logger.ParseLevel(cfg.Logger.Level), cfg.Logger.Format)
	appLogger := logger.New("vector_indexer", "", "")

	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		return fmt.Errorf("connect to MySQL: %w", err)
	}
	defer mysql.Close()
	defer redis.Close()

	svc := vectorservice.Setup(ctx, cfg, db, appLogger)
	if err := svc.Ready(); err != nil {
		return err
	}
	if mc, err := milvus.GetClient(ctx, &cfg.Databases.Milvus); err == nil {
		// Close 会先 flush，保证写入对后续检索可见。
		defer mc.Close()
	}

	for _, k := range kinds {
		res, err := svc.BulkIndexAll(ctx, k)
		if err != nil {
			appLogger.WithErr(err, "index_error").Error("Bulk indexing failed")
			return err
		}
		appLogger.WithPayload(map[string]interface{}{"kind": k, "count": res.Count}).Info(res.Message)
	}
	return nil
}
