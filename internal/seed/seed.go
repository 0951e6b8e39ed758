// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"photogram/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	gofakeit.Seed(time.Now().UnixNano())

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	users, err := createUsers(db, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("%d test users created", len(users))

	posts, err := createPosts(db, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	if err := createLikes(db, users, posts); err != nil {
		return fmt.Errorf("failed to create likes: %w", err)
	}

	if err := createFollows(db, users); err != nil {
		return fmt.Errorf("failed to create follows: %w", err)
	}

	log.Println("Seeding complete")
	return nil
}

func clearData(db *gorm.DB) error {
	// Delete in dependency order so foreign keys do not block the cleanup.
	for _, table := range []string{"likes", "follows", "posts", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(db *gorm.DB, count int) ([]models.User, error) {
	// All seeded accounts share one password so bcrypt runs once.
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		user := models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
			Email:    gofakeit.Email(),
			Password: string(hashed),
			Bio:      gofakeit.Sentence(10),
			Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		}
		if err := db.Create(&user).Error; err != nil {
			// Random usernames and emails can collide; skip and keep going.
			continue
		}
		users = append(users, user)
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("no users could be created")
	}
	return users, nil
}

func createPosts(db *gorm.DB, users []models.User, count int) ([]models.Post, error) {
	posts := make([]models.Post, 0, count)
	now := time.Now()

	for i := 0; i < count; i++ {
		user := users[rand.Intn(len(users))]
		createdAt := now.Add(-time.Duration(rand.Intn(90*24)) * time.Hour)

		post := models.Post{
			UserID: user.ID,
			// The image column stores a filename; seeded posts reference
			// placeholder names in the same timestamp-derived format.
			Image:       fmt.Sprintf("%d.jpg", createdAt.Unix()-int64(i)),
			Description: gofakeit.Sentence(8),
			CreatedAt:   createdAt,
		}
		if err := db.Create(&post).Error; err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}

	return posts, nil
}

func createLikes(db *gorm.DB, users []models.User, posts []models.Post) error {
	liked := 0
	for _, post := range posts {
		for _, user := range users {
			// Roughly a quarter of user/post pairs get a like.
			if rand.Intn(4) != 0 {
				continue
			}
			like := models.Like{UserID: user.ID, PostID: post.ID}
			if err := db.Create(&like).Error; err != nil {
				return err
			}
			liked++
		}
	}
	log.Printf("%d likes created", liked)
	return nil
}

func createFollows(db *gorm.DB, users []models.User) error {
	followed := 0
	for _, follower := range users {
		for _, followee := range users {
			if follower.ID == followee.ID || rand.Intn(5) != 0 {
				continue
			}
			follow := models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}
			if err := db.Create(&follow).Error; err != nil {
				return err
			}
			followed++
		}
	}
	log.Printf("%d follows created", followed)
	return nil
}
