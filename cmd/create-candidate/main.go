package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/verisant/proctor-backend/internal/config"
	"github.com/verisant/proctor-backend/internal/database"
	"github.com/verisant/proctor-backend/internal/logger"
	"github.com/verisant/proctor-backend/internal/model"
	"github.com/verisant/proctor-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	candidateRepo := repository.NewCandidateRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Register New Exam Candidate ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	// Access codes are generated, not chosen, so they are never reused
	// passwords. The plaintext is printed once for the invitation email.
	accessCode, err := generateAccessCode()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate access code")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(accessCode), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash access code")
	}

	candidate := &model.Candidate{
		Name:           name,
		Email:          email,
		AccessCodeHash: string(hashed),
	}

	if err := candidateRepo.Create(ctx, candidate); err != nil {
		log.Fatal().Err(err).Msg("Failed to create candidate")
	}

	fmt.Printf("\nSuccess! Candidate '%s' (%s) created with ID: %d\n", candidate.Name, candidate.Email, candidate.ID)
	fmt.Printf("Access code (share once, not recoverable): %s\n", accessCode)
}

// generateAccessCode returns a 16-hex-char random code.
func generateAccessCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
