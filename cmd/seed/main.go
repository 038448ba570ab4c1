// Command seed fills the configured storage backend with a demo account
// and a batch of randomized records, for local development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/bxcodec/faker/v3"

	"tally/internal/auth"
	"tally/internal/cli"
	"tally/internal/core"
	"tally/internal/ledger"
	"tally/internal/log"
)

func main() {
	var (
		email    = flag.String("email", "demo@tally.local", "email of the seeded account")
		password = flag.String("password", "demo-password", "password of the seeded account")
		count    = flag.Int("count", 50, "number of records to create")
		seed     = flag.Int64("seed", 0, "random seed, 0 for non-deterministic")
	)
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentCLI)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	result := cli.InitBackend(ctx, logger, cfg)
	if result.Cleanup != nil {
		defer result.Cleanup()
	}

	rng := rand.New(rand.NewSource(*seed))
	if *seed == 0 {
		rng = rand.New(rand.NewSource(int64(os.Getpid())))
	}

	authSvc := auth.NewService(result.Store, cfg.JWTSecret)
	if _, err := authSvc.Signup(ctx, *email, *password, faker.Name()); err != nil {
		if !errors.Is(err, ledger.ErrEmailTaken) {
			fmt.Fprintf(os.Stderr, "seed account: %v\n", err)
			os.Exit(1)
		}
		logger.Info("account already exists, reusing", log.FieldOperation, "seed")
	}

	user, err := result.Store.UserByEmail(ctx, *email)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lookup seeded account: %v\n", err)
		os.Exit(1)
	}

	created := 0
	for i := 0; i < *count; i++ {
		kind := core.Expense
		if rng.Intn(4) == 0 { // roughly one income per three expenses
			kind = core.Income
		}
		fields := randomFields(rng, kind)
		if _, err := result.Store.CreateRecord(ctx, user.ID, kind, fields); err != nil {
			fmt.Fprintf(os.Stderr, "create record: %v\n", err)
			os.Exit(1)
		}
		created++
	}

	logger.Info("seeding complete",
		log.FieldOwnerID, user.ID,
		"records", created,
		log.FieldBackend, cfg.DataBackend)
	fmt.Printf("seeded %d records for %s\n", created, *email)
}

func randomFields(rng *rand.Rand, kind core.Kind) core.RecordFields {
	categories := kind.Categories()
	category := categories[rng.Intn(len(categories))]

	// Incomes skew larger than expenses.
	cents := int64(rng.Intn(20000) + 100)
	if kind == core.Income {
		cents = int64(rng.Intn(400000) + 100000)
	}

	title := capitalize(faker.Word()) + " " + faker.Word()
	return core.RecordFields{
		Title:    title,
		Amount:   core.Money{Cents: cents},
		Category: category,
	}
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}
