package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/bookstore-labs/go-bookstore-backend/internal/aws"
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

	processor := NewProcessor(clients, os.Getenv("DYNAMODB_TABLE"), os.Getenv("METRICS_NAMESPACE"), zlog)

	// If RUN_LOCAL=true, simulate a single queue event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"detail":{"meta":{"eventName":"ORDER_CREATED"},"content":{"id":"o#local-1","type":"order","status":"CREATED","total":"20"}}}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := processor.Handle(context.Background(), event); err != nil {
			log.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(processor.Handle)
}
