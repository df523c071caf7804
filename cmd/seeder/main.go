package main

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/smash-ladder/internal/config"
	"github.com/mauv0809/smash-ladder/internal/database"
	"github.com/mauv0809/smash-ladder/internal/league"
)

var roster = []league.Registration{
	{FirstName: "Anna", LastName: "Lindqvist", Affiliation: "Ericsson"},
	{FirstName: "Erik", LastName: "Johansson", Affiliation: "Ericsson"},
	{FirstName: "Sara", LastName: "Nilsson", Affiliation: "Ericsson"},
	{FirstName: "Oskar", LastName: "Berg", Affiliation: "Ericsson"},
	{FirstName: "Maja", LastName: "Holm", Affiliation: "Ericsson"},
	{FirstName: "Lucas", LastName: "Ek", Affiliation: "Ericsson"},
	{FirstName: "Elin", LastName: "Sandberg", Affiliation: "Away"},
	{FirstName: "Hugo", LastName: "Lund", Affiliation: "Away"},
	{FirstName: "Ida", LastName: "Forsberg", Affiliation: "Away"},
	{FirstName: "Viktor", LastName: "Strand", Affiliation: "Away"},
}

func main() {
	log.Info("Starting database seeder...")
	cfg := config.Load()

	db, teardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken, cfg.MigrationsDir)
	if err != nil {
		log.Fatalf("Failed to initialize database: %s", err)
	}
	defer teardown()

	store := league.New(db)
	ctx := context.Background()

	added := 0
	for _, reg := range roster {
		p, err := store.AddPlayer(ctx, reg)
		if errors.Is(err, league.ErrDuplicatePlayer) {
			log.Info("Player already registered, skipping", "first_name", reg.FirstName, "last_name", reg.LastName)
			continue
		}
		if err != nil {
			log.Fatalf("Failed to register %s %s: %s", reg.FirstName, reg.LastName, err)
		}
		added++
		log.Debug("Seeded player", "id", p.ID)
	}
	log.Info("Seeding complete", "added", added, "roster", len(roster))
}
