package config

import "os"

// Config carries everything the process reads from the environment. The mail
// settings are injected into the notifier at construction so nothing in the
// request path touches ambient process state.
type Config struct {
	Port       string
	RedisAddr  string
	AMQPURL    string
	JWTSecret  string
	AdminEmail string
	FromEmail  string
	SMTP       SMTP
}

type SMTP struct {
	Host string
	Port string
	User string
	Pass string
}

func Load() Config {
	cfg := Config{
		Port:       getenv("PORT", "8080"),
		RedisAddr:  getenv("REDIS_HOST", "localhost") + ":" + getenv("REDIS_PORT", "6379"),
		AMQPURL:    os.Getenv("RABBITMQ_URL"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		AdminEmail: getenv("ADMIN_EMAIL", "admin@pharmakart.local"),
		FromEmail:  getenv("FROM_EMAIL", "no-reply@pharmakart.local"),
		SMTP: SMTP{
			Host: os.Getenv("SMTP_HOST"),
			Port: os.Getenv("SMTP_PORT"),
			User: os.Getenv("SMTP_USER"),
			Pass: os.Getenv("SMTP_PASS"),
		},
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
