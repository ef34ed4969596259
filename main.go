package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	migratecmd "example.com/retrowall/cmd/migrate"
	"example.com/retrowall/cmd/server"
	appkafka "example.com/retrowall/internal/broker"
	"example.com/retrowall/internal/composer"
	"example.com/retrowall/internal/feed"
	"example.com/retrowall/internal/gateway"
	config "example.com/retrowall/internal/init"
	"example.com/retrowall/internal/profile"
)

func main() {
	// Initialize application configuration
	cfg := config.Init()

	if cfg.Mode == "migrate" {
		if err := migratecmd.Run(cfg.DatabaseURL); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}
	if cfg.Mode != "server" {
		log.Fatalf("unknown mode: %s", cfg.Mode)
	}

	// Gateways to the backend-as-a-service
	records := gateway.NewRecords()
	storage := gateway.NewStorage()

	// Optional post-created event publisher
	var events appkafka.EventWriter
	if cfg.KafkaBroker != "" {
		writer, err := appkafka.NewKafkaWriter(appkafka.KafkaConfig{
			Brokers:      []string{cfg.KafkaBroker},
			Topic:        cfg.KafkaTopic,
			WriteTimeout: cfg.KafkaWriteTO,
		})
		if err != nil {
			log.Fatalf("Kafka writer init failed: %v", err)
		}
		defer writer.Close()
		events = writer
	}

	// Setup OS signal handling for graceful shutdown (SIGINT, SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resolve the session profile. A missing record degrades to a
	// placeholder; any other load failure is fatal at startup.
	profileStore := profile.New(records)
	if err := profileStore.LoadOrPlaceholder(ctx, cfg.DefaultProfileID); err != nil {
		log.Fatalf("Profile load failed: %v", err)
	}

	// Load the wall. A failed load leaves the feed empty and retriable
	// rather than killing the process.
	feedStore := feed.New(records)
	if err := feedStore.Load(ctx); err != nil {
		log.Printf("Feed load failed, starting with an empty wall: %v", err)
	}

	comp := composer.New(records, storage, feedStore, profileStore, events, cfg.PostImageBucket)

	server.Run(ctx, server.Options{
		Composer:  comp,
		Feed:      feedStore,
		Profile:   profileStore,
		Name:      profile.NewNameEditor(profileStore, records),
		Bio:       profile.NewBioEditor(profileStore, records),
		Avatar:    profile.NewAvatarEditor(profileStore, records, storage, cfg.AvatarBucket),
		MaxUpload: cfg.MaxUploadBytes,

		Addr:             cfg.ServerAddr,
		SessionSecret:    cfg.SessionSecret,
		DefaultProfileID: cfg.DefaultProfileID,
	})

	log.Println("Shutdown completed")
}
