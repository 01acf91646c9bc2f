// Package main - glow-sim
// Scripted simulator that drives the game-state engine through several
// days of meditation sessions, quests and glowbag rolls. Useful for
// exercising a running glow-syncd instance end to end.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/calmloop/glowcore/internal/domain/catalog"
	"github.com/calmloop/glowcore/internal/domain/player"
	"github.com/calmloop/glowcore/internal/engine"
	"github.com/calmloop/glowcore/internal/events"
	"github.com/calmloop/glowcore/internal/infra/identity"
	"github.com/calmloop/glowcore/internal/infra/remote"
	"github.com/calmloop/glowcore/internal/infra/storage"
	"github.com/calmloop/glowcore/internal/platform/config"
	"github.com/calmloop/glowcore/internal/platform/logger"
	"github.com/calmloop/glowcore/internal/platform/metrics"
	"github.com/joho/godotenv"
)

func main() {
	userID := flag.String("user", "SIM_USER_001", "Player document id")
	userName := flag.String("name", "Sim Player", "Player display name")
	days := flag.Int("days", 7, "Simulated days")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Loot RNG seed")
	offline := flag.Bool("offline", false, "Skip remote sync and config fetches")
	jwtSecret := flag.String("jwt-secret", "", "Mint a dev token against this secret")
	flag.Parse()

	_ = godotenv.Load()

	var cfg config.Engine
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("Bad configuration: %v", err)
	}

	fmt.Println("=========================================")
	fmt.Println("GLOW-SIM - Engine Simulator")
	fmt.Println("=========================================")
	fmt.Printf("User:    %s\n", *userID)
	fmt.Printf("Days:    %d\n", *days)
	fmt.Printf("Seed:    %d\n", *seed)
	fmt.Printf("Offline: %t\n", *offline)
	fmt.Println("=========================================")

	appLogger := logger.NewLogger()
	stats := metrics.NewCollector()

	db, err := storage.InitSQLite(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	defer db.Close()
	blobs := storage.NewSQLiteBlobStore(db)

	cat, err := catalog.Load()
	if err != nil {
		appLogger.Error("Failed to load catalog: " + err.Error())
		os.Exit(1)
	}

	provider := identity.NewStaticProvider(*userID)

	var token string
	if *jwtSecret != "" {
		token, err = identity.MintToken(*userID, []byte(*jwtSecret), 24*time.Hour)
		if err != nil {
			appLogger.Error("Failed to mint dev token: " + err.Error())
			os.Exit(1)
		}
	}

	var pusher engine.RemotePusher
	var docs engine.DocumentFetcher
	httpClient := &http.Client{Timeout: 10 * time.Second}
	docStore := remote.NewDocStoreClient(cfg.SyncURL, token, httpClient)
	if !*offline {
		pusher = docStore
		docs = docStore
	}

	eventLog := events.NewLog(nil)

	store := engine.NewStore(engine.StoreDeps{
		Blobs:          blobs,
		Remote:         pusher,
		Identity:       provider,
		Activity:       eventLog,
		Log:            appLogger,
		Stats:          stats,
		DebounceWindow: cfg.DebounceWindow,
	})
	defer store.Close()

	ctx := context.Background()
	if err := store.Hydrate(ctx); err != nil {
		appLogger.Warn("Starting from a fresh state: " + err.Error())
	}
	store.SetProfile(playerProfile(*userName))

	fetcher := remote.NewConfigFetcher(cfg.ConfigURL, cfg.ConfigTTL, blobs, httpClient, appLogger, stats)
	loot := engine.NewLootEngine(cat, rand.New(rand.NewSource(*seed)), appLogger, stats)
	grants := engine.NewGrantService(store, cat, loot, fetcher, appLogger)

	online := func(ctx context.Context) bool { return !*offline }
	reconciler := engine.NewReconciler(store, docs, provider, online, appLogger)
	reconciler.Run(ctx)

	rng := rand.New(rand.NewSource(*seed + 1))
	for day := 1; day <= *days; day++ {
		fmt.Printf("\n--- Day %d ---\n", day)
		simulateDay(ctx, store, grants, cat, rng)
	}

	store.Flush()
	printFinalState(store)
}

func playerProfile(name string) player.Profile {
	return player.Profile{
		Name:       name,
		Element:    "water",
		Trait:      "calm",
		Motivation: "sleep better",
	}
}

func simulateDay(ctx context.Context, store *engine.Store, grants *engine.GrantService, cat *catalog.Catalog, rng *rand.Rand) {
	if store.MaybeResetQuests() {
		fmt.Println("Quest board reset for the new day")
	}

	// One to three sessions, sometimes a long one.
	sessions := 1 + rng.Intn(3)
	for i := 0; i < sessions; i++ {
		xp := 60 + rng.Intn(320)
		if err := store.AddXP(xp); err != nil {
			log.Printf("AddXP failed: %v", err)
			continue
		}
		fmt.Printf("Session complete: +%d XP\n", xp)
	}
	store.IncrementStreak()
	store.AddTokens(10 + rng.Intn(20))

	for _, quest := range catalog.DailyQuests() {
		if rng.Float64() < 0.7 {
			if err := store.CompleteQuest(quest.ID); err != nil {
				log.Printf("CompleteQuest(%s) failed: %v", quest.ID, err)
			}
		}
	}

	drop, err := grants.OpenGlowbag(ctx)
	if err != nil {
		log.Printf("OpenGlowbag failed: %v", err)
	} else if drop == nil {
		fmt.Println("Glowbag: no drop this time")
	} else {
		fmt.Printf("Glowbag: %s (%s) alreadyOwned=%t\n", drop.Item.ID, drop.Tier, drop.AlreadyOwned)
	}

	// Window-shop occasionally.
	if rng.Float64() < 0.3 {
		items := cat.Items()
		item := items[rng.Intn(len(items))]
		if err := grants.Purchase(item.ID); err != nil {
			fmt.Printf("Purchase of %s declined: %v\n", item.ID, err)
		} else {
			fmt.Printf("Purchased %s for %d tokens\n", item.ID, item.Price)
		}
	}
}

func printFinalState(store *engine.Store) {
	state := store.State()

	fmt.Println("\n=========================================")
	fmt.Println("FINAL STATE")
	fmt.Println("=========================================")
	fmt.Printf("Streak:       %d\n", state.Progress.Streak)
	fmt.Printf("XP:           %d\n", state.Progress.XP)
	fmt.Printf("Tokens:       %d\n", state.Progress.Tokens)
	fmt.Printf("Cosmetics:    %d owned\n", len(state.Cosmetics.Owned))
	fmt.Printf("Achievements: %v\n", state.Achievements.Unlocked)
	var done []string
	for _, quest := range state.Quests.DailyQuests {
		if state.Quests.Completed(quest.ID) {
			done = append(done, quest.ID)
		}
	}
	fmt.Printf("Quests done:  %v\n", done)

	jsonData, _ := json.MarshalIndent(state, "", "  ")
	if err := os.WriteFile("sim_final_state.json", jsonData, 0644); err == nil {
		fmt.Println("\nFull state saved to sim_final_state.json")
	}
}
