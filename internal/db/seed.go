package db

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedTestData resets the database and populates it with demo data.
//
// Behavior:
//  1. Clears all tables.
//  2. Creates 20 profiles (10 male, 10 female) plus one admin, with hashed
//     passwords and some starting stars/boosts.
//  3. Generates likes with a guaranteed mutual pair every 3rd like, creating
//     the corresponding match rows.
//  4. Creates a couple of demo promocodes.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	tables := []string{
		"boost_histories", "promocode_redemptions", "promocodes",
		"vip_payments", "currency_payments",
		"messages", "matches", "likes", "profiles",
	}
	for _, tbl := range tables {
		if err := db.Exec("DELETE FROM " + tbl).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", tbl, err)
		}
	}
	log.Println("Cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	cities := []string{"Berlin", "Lisbon", "Warsaw", "Riga", "Tbilisi"}

	var profiles []Profile
	for i := 1; i <= 20; i++ {
		gender := "male"
		if i > 10 {
			gender = "female"
		}
		dob := time.Now().AddDate(-20-r.Intn(15), 0, -r.Intn(365))
		p := Profile{
			ID:           fmt.Sprintf("00000000-0000-0000-0000-%012d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Name:         fmt.Sprintf("user%d", i),
			Gender:       gender,
			DateOfBirth:  &dob,
			City:         cities[r.Intn(len(cities))],
			Bio:          "Coffee, books and long walks.",
			Stars:        int64(r.Intn(20)),
			Boosts:       int64(r.Intn(3)),
			LastSeenAt:   time.Now().Add(-time.Duration(r.Intn(500)) * time.Hour),
		}
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
		profiles = append(profiles, p)
	}

	admin := Profile{
		ID:           "00000000-0000-0000-0000-000000000999",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Name:         "admin",
		Gender:       "female",
		IsAdmin:      true,
		Stars:        100,
		Boosts:       10,
		LastSeenAt:   time.Now(),
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	log.Println("Seeded 21 profiles.")

	// Likes: each profile likes ~6 profiles of the other gender, every 3rd
	// like is made mutual (and a match row created).
	counter := 0
	for _, actor := range profiles {
		for j := 0; j < 6; j++ {
			target := profiles[r.Intn(len(profiles))]
			if target.ID == actor.ID || target.Gender == actor.Gender {
				continue
			}

			like := Like{LikerID: actor.ID, LikedID: target.ID}
			if err := db.Create(&like).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					continue
				}
				return fmt.Errorf("failed to seed like: %w", err)
			}

			if counter%3 == 0 {
				recip := Like{LikerID: target.ID, LikedID: actor.ID}
				if err := db.Create(&recip).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("failed to seed reciprocal like: %w", err)
				}
				lo, hi := actor.ID, target.ID
				if hi < lo {
					lo, hi = hi, lo
				}
				match := Match{UserLoID: lo, UserHiID: hi}
				if err := db.Create(&match).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
					return fmt.Errorf("failed to seed match: %w", err)
				}
			}
			counter++
		}
	}
	log.Printf("Seeded %d likes.", counter)

	maxUses := int64(1)
	promos := []Promocode{
		{Code: "WELCOME10", RewardType: RewardStars, RewardAmount: 10, MaxUses: &maxUses, IsActive: true, CreatedBy: admin.ID},
		{Code: "LIFTOFF", RewardType: RewardBoosts, RewardAmount: 3, IsActive: true, CreatedBy: admin.ID},
		{Code: "ROYALWEEK", RewardType: RewardVIP, RewardAmount: 7, IsActive: true, CreatedBy: admin.ID},
	}
	for i := range promos {
		if err := db.Create(&promos[i]).Error; err != nil {
			return fmt.Errorf("failed to seed promocode: %w", err)
		}
	}
	log.Println("Seeded promocodes.")

	return nil
}
