package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/storage"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/joho/godotenv"

	"github.com/yourplaces/api/config"
	"github.com/yourplaces/api/internal/application"
	"github.com/yourplaces/api/pkg/helpers"
	"github.com/yourplaces/api/pkg/mailer"
)

// worker consumes the two background queues: welcome emails (sent via
// Mailgun) and image-cleanup jobs left behind by place deletion (objects
// removed from GCS). Both are best-effort; a failed delivery is requeued
// once and then dropped.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.RabbitMQURL == "" {
		log.Fatal("RabbitMQ not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}

	ctx := context.Background()

	gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
	if err != nil {
		log.Fatalf("gcs client: %v", err)
	}
	defer func() { _ = gcsClient.Close() }()

	var mg *mailer.Mailgun
	if cfg.MailSendEnabled && cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" && cfg.MailgunSender != "" {
		mg = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	} else {
		log.Println("mailgun not configured; email jobs will be dropped")
	}

	if _, err := ch.QueueDeclare(cfg.RabbitMQEmailQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare %s: %v", cfg.RabbitMQEmailQueue, err)
	}
	if _, err := ch.QueueDeclare(cfg.RabbitMQCleanupQueue, true, false, false, false, nil); err != nil {
		log.Fatalf("queue declare %s: %v", cfg.RabbitMQCleanupQueue, err)
	}

	emails, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume %s: %v", cfg.RabbitMQEmailQueue, err)
	}
	cleanups, err := ch.Consume(cfg.RabbitMQCleanupQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume %s: %v", cfg.RabbitMQCleanupQueue, err)
	}

	go func() {
		for msg := range emails {
			handleEmail(ctx, mg, msg)
		}
	}()
	go func() {
		for msg := range cleanups {
			handleCleanup(ctx, gcsClient, cfg.GCSBucket, msg)
		}
	}()

	log.Printf("worker consuming %s and %s", cfg.RabbitMQEmailQueue, cfg.RabbitMQCleanupQueue)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("worker shutting down")
}

func handleEmail(ctx context.Context, mg *mailer.Mailgun, msg amqp.Delivery) {
	var job mailer.EmailJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		log.Printf("bad email message: %v", err)
		_ = msg.Nack(false, false)
		return
	}
	if mg == nil {
		_ = msg.Ack(false)
		return
	}
	if err := mg.Send(ctx, job.To, job.Subject, job.Text, job.HTML); err != nil {
		log.Printf("send email to %s: %v", job.To, err)
		// Requeue once; a redelivered message that fails again is dropped.
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}
	_ = msg.Ack(false)
}

func handleCleanup(ctx context.Context, gcs *storage.Client, bucket string, msg amqp.Delivery) {
	var job application.ImageCleanupJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		log.Printf("bad cleanup message: %v", err)
		_ = msg.Nack(false, false)
		return
	}
	if bucket == "" || job.ObjectPath == "" {
		_ = msg.Ack(false)
		return
	}
	if err := helpers.DeleteObject(ctx, gcs, bucket, job.ObjectPath); err != nil {
		log.Printf("delete object %s: %v", job.ObjectPath, err)
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}
	_ = msg.Ack(false)
}
