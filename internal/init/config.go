package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// App mode & server
	Mode       string
	ServerAddr string

	// Backend gateways (Supabase-compatible REST)
	SupabaseURL     string
	SupabaseAnonKey string
	AvatarBucket    string
	PostImageBucket string
	GatewayTimeout  time.Duration
	MaxUploadBytes  int64

	// Session identity
	DefaultProfileID string
	SessionSecret    string

	// Post-created events (optional)
	KafkaBroker  string
	KafkaTopic   string
	KafkaWriteTO time.Duration

	// Schema migrations (mode=migrate)
	DatabaseURL string
}

var cfg *Config

// Init loads the config using Viper and returns it
func Init() *Config {
	// .env is optional; real env always wins via AutomaticEnv below
	_ = godotenv.Load(".env")

	viper.SetDefault("MODE", "server")
	viper.SetDefault("SERVER_ADDR", ":8080")

	viper.SetDefault("SUPABASE_URL", "http://localhost:54321")
	viper.SetDefault("AVATAR_BUCKET", "avatars")
	viper.SetDefault("POST_IMAGE_BUCKET", "post-images")
	viper.SetDefault("GATEWAY_TIMEOUT", "10s")
	viper.SetDefault("MAX_UPLOAD_BYTES", 10<<20)

	// Development default: stands in for a logged-in user until
	// SESSION_SECRET switches the surface to token identity.
	viper.SetDefault("DEFAULT_PROFILE_ID", "ef26dd17-d200-4cda-b18d-65fb7ff825de")

	viper.SetDefault("KAFKA_TOPIC", "wall-events")
	viper.SetDefault("KAFKA_WRITE_TIMEOUT", "10s")

	// Load env variables
	viper.AutomaticEnv()

	// Optional config file support
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	_ = viper.ReadInConfig() // ignore error if no file

	cfg = &Config{
		Mode:             viper.GetString("MODE"),
		ServerAddr:       viper.GetString("SERVER_ADDR"),
		SupabaseURL:      viper.GetString("SUPABASE_URL"),
		SupabaseAnonKey:  viper.GetString("SUPABASE_ANON_KEY"),
		AvatarBucket:     viper.GetString("AVATAR_BUCKET"),
		PostImageBucket:  viper.GetString("POST_IMAGE_BUCKET"),
		GatewayTimeout:   parseDuration(viper.GetString("GATEWAY_TIMEOUT"), 10*time.Second),
		MaxUploadBytes:   viper.GetInt64("MAX_UPLOAD_BYTES"),
		DefaultProfileID: viper.GetString("DEFAULT_PROFILE_ID"),
		SessionSecret:    viper.GetString("SESSION_SECRET"),
		KafkaBroker:      viper.GetString("KAFKA_BROKER"),
		KafkaTopic:       viper.GetString("KAFKA_TOPIC"),
		KafkaWriteTO:     parseDuration(viper.GetString("KAFKA_WRITE_TIMEOUT"), 10*time.Second),
		DatabaseURL:      viper.GetString("DATABASE_URL"),
	}

	return cfg
}

func parseDuration(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

// Get returns the loaded config instance
func Get() *Config {
	return cfg
}
