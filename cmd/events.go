/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/chorsey/apiserver/config"
	"github.com/chorsey/apiserver/internal/mq"
	"github.com/chorsey/apiserver/internal/server"
	"github.com/spf13/cobra"
)

// eventsCmd tails the task event channel.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print task events published by the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := server.NewLogger(cfg.LogLevel).Named("events")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return fmt.Errorf("MQ_BACKEND is %q; set it to %s or %s", cfg.MQ.Backend, config.BackendRabbitMQ, config.BackendPubSub)
		}
		defer queue.Close()

		logger.Info("listening for task events", "channel", cfg.MQ.Channel)
		err = queue.Subscribe(ctx, cfg.MQ.Channel, func(ctx context.Context, msg mq.Message) error {
			event, err := mq.DecodeTaskEvent(msg)
			if err != nil {
				// Redelivering a malformed message would fail forever.
				logger.Error("skipping malformed event", "message_id", msg.ID, "error", err)
				return nil
			}
			logger.Info(string(event.Type),
				"task_id", event.Task.ID,
				"title", event.Task.Title,
				"status", event.Task.Status,
				"previous_status", event.PreviousStatus,
				"actor_id", event.ActorID,
				"occurred_at", event.OccurredAt,
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
