package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/pavitra93/go-lease-management/services/leasectl/commands"
	"github.com/pavitra93/go-lease-management/shared/config"
	"github.com/pavitra93/go-lease-management/shared/core"
	"github.com/pavitra93/go-lease-management/shared/events"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	log := logrus.NewEntry(config.NewLogger(config.GetLogConfig())).WithField("service", "leasectl")

	app := &commands.App{
		Open: func(ctx context.Context) (*core.Core, error) {
			return core.Open(ctx, log)
		},
		Consumer: func() (commands.EventSource, error) {
			kc := config.GetKafkaConfig()
			if !kc.Enabled {
				return nil, fmt.Errorf("kafka is disabled, set KAFKA_ENABLED=true")
			}
			return events.NewKafkaConsumer(kc, log), nil
		},
		Log: log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Root(app).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
