package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"compass/api"
	"compass/logging"
	"compass/orchestrator"
	"compass/scheduler"
	"compass/shared/kafka"
)

const shutdownTimeout = 30 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the API and run the daily schedule",
	Long: `Start the HTTP API and the cron schedule. When Kafka is enabled, run
requests are also consumed from the request topic and completion events are
published to the events topic. Runs from every source share one slot, so
only one pipeline run is ever in progress.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	res, err := orchestrator.Connect(ctx, *cfg)
	if err != nil {
		return err
	}
	defer res.Close()

	var events orchestrator.Publisher
	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.EventsTopic,
		})
		if err != nil {
			return err
		}
		defer producer.Close()
		events = producer
	}

	pipeline, err := orchestrator.Build(*cfg, res, events)
	if err != nil {
		return err
	}

	sched := scheduler.New(pipeline)
	if cfg.Schedule.Enabled {
		if err := sched.Start(cfg.Schedule.Cron); err != nil {
			return err
		}
	}

	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		consumer, err = kafka.NewRunRequestConsumer(cfg.Kafka.Brokers, cfg.Kafka.RequestTopic, cfg.Kafka.GroupID, sched)
		if err != nil {
			return err
		}
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Error("run request consumer stopped", "err", err)
			}
		}()
	}

	port := cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}
	server := api.NewServer(api.Deps{
		Reader:     pipeline.Reader(),
		Dedup:      pipeline.Deduplicator(),
		Classifier: pipeline.Classifier(),
		Entities:   pipeline.Entities(),
		Runs:       res.Store,
		Control:    sched,
	})
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := api.NewHTTPServer(port, api.NewRouter(server))
	httpServer.Start()

	<-ctx.Done()
	logging.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	errs = append(errs, httpServer.Shutdown(shutdownCtx))
	if consumer != nil {
		errs = append(errs, consumer.Close())
	}
	errs = append(errs, sched.Stop(shutdownCtx))
	return errors.Join(errs...)
}
