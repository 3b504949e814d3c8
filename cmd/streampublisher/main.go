package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/bookstore-labs/go-bookstore-backend/internal/aws"
	domainevents "github.com/bookstore-labs/go-bookstore-backend/internal/events"
	"github.com/bookstore-labs/go-bookstore-backend/pkg/logger"
)

func main() {
	zlog, err := logger.NewFromEnv()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	bus := aws.NewEventBus(
		clients.EventBridge,
		os.Getenv("EVENT_BUS_ARN"),
		domainevents.Source,
		domainevents.DetailType,
	)

	var dlq *aws.QueuePublisher
	if url := os.Getenv("PUBLISH_DLQ_URL"); url != "" {
		dlq = aws.NewQueuePublisher(clients.SQS, url)
	}

	publisher := NewPublisher(bus, dlq, zlog)
	lambda.Start(publisher.Handle)
}
