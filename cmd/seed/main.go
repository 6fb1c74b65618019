package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"eventhub/internal/events"
	"eventhub/internal/inventory"
	"eventhub/internal/shared/config"
	"eventhub/internal/shared/database"
	"eventhub/internal/users"
	"eventhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Seeder struct {
	db     *database.DB
	events events.Service
	log    *logger.Logger
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New().WithComponent("seed")
	log.Info("Starting EventHub database seeder")

	db, err := database.InitDB(cfg, log)
	if err != nil {
		log.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// stock goes through the ledger so every seeded event starts with an opening movement
	ledger := inventory.NewGormLedger(db.PostgreSQL, log)
	seeder := &Seeder{
		db:     db,
		events: events.NewService(events.NewRepository(db.PostgreSQL), ledger, nil, log, cfg.Payment.Currency),
		log:    log,
	}

	if err := seeder.CleanDatabase(); err != nil {
		log.Error("Failed to clean database", "error", err)
		os.Exit(1)
	}
	log.Info("Database cleaned")

	if err := seeder.SeedAll(context.Background()); err != nil {
		log.Error("Failed to seed database", "error", err)
		os.Exit(1)
	}
	log.Info("Seeding completed, database is ready for testing")
}

// CleanDatabase truncates all tables, children first
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"comments",
		"compensation_tasks",
		"inventory_movements",
		"bookings",
		"events",
		"users",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, table := range tables {
		s.log.Info("Truncating table", "table", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit().Error
}

func (s *Seeder) SeedAll(ctx context.Context) error {
	userIDs, err := s.SeedUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if err := s.SeedEvents(ctx, userIDs["admin"]); err != nil {
		return fmt.Errorf("failed to seed events: %w", err)
	}

	// drop cached listings from a previous dataset
	if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
		s.log.Warn("Failed to clear Redis cache", "error", err)
	}

	return nil
}

// SeedUsers creates one admin and two regular users, all with password "qwerty"
func (s *Seeder) SeedUsers(ctx context.Context) (map[string]uuid.UUID, error) {
	userIDs := make(map[string]uuid.UUID)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("qwerty"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	usersData := []struct {
		key       string
		firstName string
		lastName  string
		email     string
		role      users.Role
		interests []string
	}{
		{"admin", "Admin", "User", "admin@eventhub.local", users.RoleAdmin, nil},
		{"user1", "Priya", "Nair", "priya@eventhub.local", users.RoleUser, []string{"concert", "festival"}},
		{"user2", "Arjun", "Mehta", "arjun@eventhub.local", users.RoleUser, []string{"conference", "workshop"}},
	}

	for _, userData := range usersData {
		user := users.User{
			FirstName: userData.firstName,
			LastName:  userData.lastName,
			Email:     userData.email,
			Password:  string(hashedPassword),
			Role:      userData.role,
			Interests: userData.interests,
		}

		if err := s.db.PostgreSQL.WithContext(ctx).Create(&user).Error; err != nil {
			return nil, fmt.Errorf("failed to create user %s: %w", userData.email, err)
		}

		userIDs[userData.key] = user.ID
		s.log.Info("Created user", "email", user.Email, "role", user.Role)
	}

	return userIDs, nil
}

// SeedEvents creates upcoming events. Prices are in paise.
func (s *Seeder) SeedEvents(ctx context.Context, adminID uuid.UUID) error {
	eventsData := []struct {
		title       string
		description string
		location    string
		eventType   events.EventType
		price       int64
		tickets     int
		daysFromNow int
		startTime   string
	}{
		{"Tech Conference", "Annual technology conference featuring the latest innovations and industry leaders.", "Bengaluru", events.EventTypeConference, 150000, 200, 30, "09:30"},
		{"Classical Music Evening", "An elegant evening of classical music performed by renowned musicians.", "Mumbai", events.EventTypeConcert, 80000, 120, 45, "19:00"},
		{"Go Workshop", "Hands-on workshop on building services in Go.", "Pune", events.EventTypeWorkshop, 50000, 40, 14, "10:00"},
		{"Monsoon Food Festival", "Street food from every corner of the country.", "Delhi", events.EventTypeFestival, 20000, 500, 21, "12:00"},
		{"City Marathon", "10K and half marathon through the old city.", "Chennai", events.EventTypeSport, 0, 1000, 60, "05:30"},
		{"Last Seat Standup", "A tiny room and a single ticket left, handy for race testing.", "Hyderabad", events.EventTypeOther, 30000, 1, 7, "21:00"},
	}

	for _, data := range eventsData {
		event, err := s.events.CreateEvent(ctx, adminID, events.CreateEventRequest{
			Title:            data.title,
			Description:      data.description,
			Date:             time.Now().AddDate(0, 0, data.daysFromNow).Truncate(24 * time.Hour),
			Time:             data.startTime,
			Location:         data.location,
			EventType:        string(data.eventType),
			Price:            data.price,
			AvailableTickets: data.tickets,
		})
		if err != nil {
			return fmt.Errorf("failed to create event %s: %w", data.title, err)
		}
		s.log.Info("Created event", "title", event.Title, "tickets", event.AvailableTickets, "price", event.Price)
	}

	return nil
}
