package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"whatsapp-catalog-bot/internal/config"
	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
	pg "whatsapp-catalog-bot/internal/infra/db/postgres"
	"whatsapp-catalog-bot/internal/infra/logging"
)

func main() {
	// ---- Config ----
	path, _ := config.ParseFlags()
	cfg, err := config.LoadConfig(path, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatalf("database.url is required for seeding")
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := pg.Migrate(cfg.Database.URL, logger); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	pool, err := pg.Connect(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	products := pg.NewProductRepo(pool)

	// If products already exist, do nothing
	existing, err := products.FindAll(ctx, repository.NoTX)
	if err != nil {
		log.Fatalf("list products: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d products already present. No changes.\n", len(existing))
		for _, p := range existing {
			fmt.Printf("  - #%d %s (%s, price=%s, visible=%t)\n", p.ID, p.Name, p.Category, p.Price.StringFixed(2), p.IsVisible())
		}
		return
	}

	// A few sample products so the storefront has something to render.
	seed := []struct {
		Name, Description, Category, Price string
	}{
		{"Esmeralda talla oval", "Esmeralda colombiana de 1.2 quilates", "Gemas", "2500000"},
		{"Anillo en oro 18k", "Anillo con esmeralda central y circonias", "Joyería", "1850000.50"},
		{"Aretes gota", "Par de aretes en plata con esmeraldas pequeñas", "Joyería", "420000"},
	}
	placeholder := cfg.Catalog.DefaultImageURL

	for _, s := range seed {
		p := &model.Product{
			Name:        s.Name,
			Description: s.Description,
			Category:    s.Category,
			Price:       decimal.RequireFromString(s.Price),
			Available:   true,
			Stock:       1,
		}
		if placeholder != "" {
			p.SetImage(placeholder)
		}
		if err := products.Save(ctx, repository.NoTX, p); err != nil {
			log.Fatalf("save %q: %v", s.Name, err)
		}
		fmt.Printf("Created product #%d %s\n", p.ID, p.Name)
	}
	if placeholder == "" {
		fmt.Println("catalog.default_image_url not set: seeded products stay hidden until they get a photo.")
	}
}
