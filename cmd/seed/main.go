package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"spacebook/internal/apiclient"
	"spacebook/internal/config"
	"spacebook/internal/domain"
	"spacebook/internal/pkg/logger"
)

// bearer is a token obtained outside of a browser session.
type bearer string

func (b bearer) BearerToken() string { return string(b) }

func price(v float64) *float64 { return &v }

var demoSpaces = []apiclient.SpacePayload{
	{Name: "Aurora", Type: string(domain.SpaceMeetingRoom), Capacity: 6, Description: "Small room with a screen and whiteboard", PricePerHour: price(15)},
	{Name: "Borealis", Type: string(domain.SpaceMeetingRoom), Capacity: 12, Description: "Boardroom with video conferencing", PricePerHour: price(30)},
	{Name: "Main Hall", Type: string(domain.SpaceAuditorium), Capacity: 150, Description: "Stage, projector and sound system", PricePerHour: price(120)},
	{Name: "Lecture Room", Type: string(domain.SpaceAuditorium), Capacity: 60},
	{Name: "Garden Floor", Type: string(domain.SpaceOpenSpace), Capacity: 40, Description: "Hot desks next to the terrace"},
	{Name: "Phone Booth", Type: string(domain.SpaceOther), Capacity: 1},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(false, cfg.Log.Level, "console")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	email := os.Getenv("SEED_ADMIN_EMAIL")
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		lg.Fatal("SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	api := apiclient.New(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, apiclient.WithLogger(lg))

	res, err := api.Login(ctx, apiclient.LoginRequest{Email: email, Password: password})
	if err != nil {
		lg.Fatal("admin login failed", zap.Error(err))
	}
	if !res.User.IsAdmin {
		lg.Fatal("seed account is not an admin", zap.String("email", email))
	}
	creds := bearer(res.Token)

	existing, err := api.ListSpaces(ctx, creds, apiclient.AvailabilityQuery{})
	if err != nil {
		lg.Fatal("listing spaces failed", zap.Error(err))
	}
	known := make(map[string]bool, len(existing))
	for _, s := range existing {
		known[s.Name] = true
	}

	created, skipped := 0, 0
	for _, p := range demoSpaces {
		if known[p.Name] {
			skipped++
			continue
		}
		sp, err := api.CreateSpace(ctx, creds, p)
		if err != nil {
			lg.Error("create space failed", zap.String("name", p.Name), zap.Error(err))
			continue
		}
		created++
		lg.Info("space created", zap.String("name", sp.Name), zap.Int64("id", sp.ID.Int64()))
	}

	lg.Info("seed completed", zap.Int("created", created), zap.Int("skipped", skipped))
}
