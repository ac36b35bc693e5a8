package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("CART_TTL_SECONDS", "")
	t.Setenv("PAYPAL_TEST", "")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.CartTTL != 14*24*time.Hour {
		t.Fatalf("unexpected cart ttl %s", cfg.CartTTL)
	}
	if !cfg.PayPal.Test || cfg.PayPal.PaymentHost() != "https://www.sandbox.paypal.com" {
		t.Fatalf("expected sandbox paypal by default, got %+v", cfg.PayPal)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CART_TTL_SECONDS", "60")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("PAYPAL_TEST", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.example/")

	cfg := FromEnv()
	if cfg.CartTTL != time.Minute {
		t.Fatalf("unexpected cart ttl %s", cfg.CartTTL)
	}
	if cfg.RedisDB != 3 {
		t.Fatalf("unexpected redis db %d", cfg.RedisDB)
	}
	if cfg.PayPal.PostbackURL() != "https://ipnpb.paypal.com/cgi-bin/webscr" {
		t.Fatalf("unexpected postback url %s", cfg.PayPal.PostbackURL())
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.PublicBaseURL != "https://shop.example" {
		t.Fatalf("unexpected base url %s", cfg.PublicBaseURL)
	}
}
