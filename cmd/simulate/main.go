// Command simulate fires concurrent booking requests at a single slot and
// reports how many succeeded. With the per-slot lock and the uniqueness
// constraint in place, exactly one attempt must win no matter how many
// workers race.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careslot/careslot/internal/auth"
	"github.com/careslot/careslot/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	apiBase := flag.String("api", "http://localhost:8080", "API base URL")
	workers := flag.Int("workers", 20, "concurrent booking attempts")
	flag.Parse()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	slotID, err := pickOpenSlot(ctx, pool)
	if err != nil {
		log.Fatalf("pick slot: %v", err)
	}
	patients, err := pickPatients(ctx, pool, *workers)
	if err != nil {
		log.Fatalf("pick patients: %v", err)
	}

	log.Printf("racing %d patients for slot %s", len(patients), slotID)

	tokens := auth.NewTokenIssuer(secret, time.Hour)

	var created, conflicted, failed int64
	var wg sync.WaitGroup

	client := &http.Client{Timeout: 10 * time.Second}

	for _, patientID := range patients {
		token, err := tokens.Issue(&auth.User{ID: patientID, Role: auth.RolePatient})
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}

		wg.Add(1)
		go func(token string) {
			defer wg.Done()

			status, err := postBooking(client, *apiBase, token, slotID)
			switch {
			case err != nil:
				atomic.AddInt64(&failed, 1)
				log.Printf("booking request error: %v", err)
			case status == http.StatusCreated:
				atomic.AddInt64(&created, 1)
			case status == http.StatusConflict:
				atomic.AddInt64(&conflicted, 1)
			default:
				atomic.AddInt64(&failed, 1)
				log.Printf("unexpected status %d", status)
			}
		}(token)
	}

	wg.Wait()

	count, err := countBookingsForSlot(ctx, pool, slotID)
	if err != nil {
		log.Fatalf("count bookings: %v", err)
	}

	fmt.Printf("created=%d conflicted=%d failed=%d bookings_in_db=%d\n",
		created, conflicted, failed, count)

	if created != 1 || count != 1 {
		log.Fatalf("double-booking invariant violated: %d created, %d rows", created, count)
	}
	log.Println("invariant held: exactly one booking won")
}

func pickOpenSlot(ctx context.Context, pool *pgxpool.Pool) (uuid.UUID, error) {
	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		SELECT s.id
		FROM slots s
		LEFT JOIN bookings b
		  ON b.doctor_id = s.doctor_id AND b.date = s.date AND b.time = s.time
		WHERE b.id IS NULL
		LIMIT 1
	`).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("no unbooked slot available: %w", err)
	}
	return id, nil
}

func pickPatients(ctx context.Context, pool *pgxpool.Pool, limit int) ([]uuid.UUID, error) {
	rows, err := pool.Query(ctx, `
		SELECT id FROM users WHERE role = 'patient' LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no patients seeded")
	}
	return ids, rows.Err()
}

func postBooking(client *http.Client, apiBase, token string, slotID uuid.UUID) (int, error) {
	body, err := json.Marshal(map[string]string{"slot_id": slotID.String()})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, apiBase+"/api/bookings", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func countBookingsForSlot(ctx context.Context, pool *pgxpool.Pool, slotID uuid.UUID) (int, error) {
	var count int
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM bookings b
		JOIN slots s ON s.doctor_id = b.doctor_id AND s.date = b.date AND s.time = b.time
		WHERE s.id = $1
	`, slotID).Scan(&count)
	return count, err
}
