package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var seedCities = []struct{ Country, City string }{
	{"peru", "lima"},
	{"ecuador", "quito"},
	{"colombia", "bogota"},
}

// SeedTestData resets the database and populates it with demo profiles and likes.
//
// Behavior:
//  1. Clears matches, super_likes, likes and profiles.
//  2. Creates 24 complete profiles spread over three cities, half "m" and half "f".
//  3. Generates random likes (~60% probability per compatible pair in the same city);
//     every third like is made mutual and gets its Match row.
//
// Compatible with MySQL, PostgreSQL and SQLite.
func SeedTestData(db *gorm.DB, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := clearAll(db); err != nil {
		return err
	}
	log.Info("cleared existing data")

	profiles := make([]Profile, 0, 24)
	for i := 1; i <= 24; i++ {
		loc := seedCities[i%len(seedCities)]
		gender, pref := "m", "f"
		if i%2 == 0 {
			gender, pref = "f", "m"
		}
		if i%7 == 0 {
			pref = AnyGender
		}
		profiles = append(profiles, Profile{
			ID:               uint64(i),
			DisplayName:      fmt.Sprintf("user%d", i),
			Premium:          i%5 == 0,
			PhotoRef:         fmt.Sprintf("photo-%d", i),
			Description:      fmt.Sprintf("demo profile %d", i),
			Contact:          fmt.Sprintf("@user%d", i),
			Gender:           gender,
			PreferredGender:  pref,
			Country:          loc.Country,
			City:             loc.City,
			SuperLikeCredits: int64(r.Intn(4)),
		})
	}
	if err := db.Create(&profiles).Error; err != nil {
		return fmt.Errorf("failed to seed profiles: %w", err)
	}
	log.Info("seeded profiles", "count", len(profiles))

	counter := 0
	for _, actor := range profiles {
		for _, target := range profiles {
			if actor.ID == target.ID || actor.City != target.City || actor.Gender == target.Gender {
				continue
			}
			if r.Intn(100) >= 60 {
				continue
			}
			if err := seedLike(db, actor.ID, target.ID); err != nil {
				return err
			}
			if counter%3 == 0 {
				if err := seedLike(db, target.ID, actor.ID); err != nil {
					return err
				}
				low, high := OrderedPair(actor.ID, target.ID)
				if err := db.Clauses(clause.OnConflict{DoNothing: true}).
					Create(&Match{UserLowID: low, UserHighID: high}).Error; err != nil {
					return fmt.Errorf("failed to seed match: %w", err)
				}
			}
			counter++
		}
	}
	log.Info("seeded likes", "count", counter)

	return nil
}

// SeedMinimalTestData inserts the three-profile dataset used in docs and smoke tests:
// A (lima, m→f) and B (lima, f→m) are mutually compatible, C (quito, f→m) is not nearby.
func SeedMinimalTestData(db *gorm.DB) error {
	if err := clearAll(db); err != nil {
		return err
	}

	profiles := []Profile{
		{ID: 1, DisplayName: "A", PhotoRef: "a.jpg", Contact: "@a", Gender: "m", PreferredGender: "f", Country: "peru", City: "lima"},
		{ID: 2, DisplayName: "B", PhotoRef: "b.jpg", Contact: "@b", Gender: "f", PreferredGender: "m", Country: "peru", City: "lima"},
		{ID: 3, DisplayName: "C", PhotoRef: "c.jpg", Contact: "@c", Gender: "f", PreferredGender: "m", Country: "ecuador", City: "quito"},
	}
	return db.Create(&profiles).Error
}

func seedLike(db *gorm.DB, likerID, targetID uint64) error {
	res := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&Like{LikerID: likerID, TargetID: targetID})
	if res.Error != nil {
		return fmt.Errorf("failed to seed like: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}
	return db.Model(&Profile{}).Where("id = ?", targetID).
		UpdateColumn("likes_received", gorm.Expr("likes_received + 1")).Error
}

func clearAll(db *gorm.DB) error {
	for _, table := range []string{"matches", "super_likes", "likes", "profiles"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
