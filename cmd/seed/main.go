package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/db"
)

// seedPassword is shared by every seeded account so local testing can log
// in as any of them.
const seedPassword = "password123"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.EnsureSchema(context.Background(), pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	passwordHash, err := auth.HashPassword(seedPassword)
	if err != nil {
		log.Fatalf("hash seed password: %v", err)
	}

	doctors, err := seedUsers(context.Background(), pool, auth.RoleDoctor, 10, passwordHash)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if _, err := seedUsers(context.Background(), pool, auth.RolePatient, 50, passwordHash); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedSlots(context.Background(), pool, doctors); err != nil {
		log.Fatalf("seed slots: %v", err)
	}

	log.Println("seed complete")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, role auth.Role, count int, passwordHash string) ([]uuid.UUID, error) {
	log.Printf("seeding %d %ss", count, role)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.Name()
		if role == auth.RoleDoctor {
			name = "Dr. " + name
		}
		email := fmt.Sprintf("%s%d@%s", gofakeit.Username(), i, gofakeit.DomainName())

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, name, email, role, password_hash, created_at)
			VALUES ($1, $2, $3, $4, $5, now())
		`, id, name, email, role, passwordHash)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Printf("%ss seeded", role)
	return ids, nil
}

// seedSlots publishes a week of morning and afternoon slots per doctor.
func seedSlots(ctx context.Context, pool *pgxpool.Pool, doctors []uuid.UUID) error {
	times := []string{"09:00", "09:30", "10:00", "10:30", "14:00", "14:30", "15:00"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	total := 0
	for _, doctorID := range doctors {
		for day := 1; day <= 7; day++ {
			date := time.Now().AddDate(0, 0, day).Format("2006-01-02")
			for _, slotTime := range times {
				_, err := tx.Exec(ctx, `
					INSERT INTO slots (id, doctor_id, date, time, created_at)
					VALUES ($1, $2, $3, $4, now())
				`, uuid.New(), doctorID, date, slotTime)
				if err != nil {
					return err
				}
				total++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("slots seeded: %d", total)
	return nil
}
