// Command devtoken prints an access token signed with the local JWT secret
// so the API can be exercised without the identity provider.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/spacecards/economy-api/internal/config"
	"github.com/spacecards/economy-api/internal/domain/user"
	"github.com/spacecards/economy-api/internal/pkg/database"
	"github.com/spacecards/economy-api/internal/pkg/jwt"
)

func main() {
	userFlag := flag.String("user", "", "user id (random when empty)")
	name := flag.String("name", "Dev User", "display name claim")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	sync := flag.Bool("sync", false, "upsert the user row before printing the token")
	flag.Parse()

	cfg := config.Load()
	if cfg.IsProduction() {
		log.Fatal("devtoken refuses to run with ENV=production")
	}

	userID := uuid.New()
	if *userFlag != "" {
		id, err := uuid.Parse(*userFlag)
		if err != nil {
			log.Fatalf("Invalid user id: %v", err)
		}
		userID = id
	}

	if *sync {
		db, err := database.NewPostgres(cfg.DatabaseURL, database.PoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.ClosePostgres(db)

		if err := user.NewRepository(db).Upsert(context.Background(), userID, *name); err != nil {
			log.Fatalf("Failed to upsert user: %v", err)
		}
	}

	token, err := jwt.NewService(cfg.JWTSecret, *ttl).GenerateAccessToken(userID, *name)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	fmt.Printf("user_id: %s\n", userID)
	fmt.Printf("Authorization: Bearer %s\n", token)
}
