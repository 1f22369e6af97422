// Package seed provides the initial contents of the books and users
// collections, either built in or read from a JSON seed file.
package seed

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/patric-chuzhbe/inoutbooks/internal/collection"
	"github.com/patric-chuzhbe/inoutbooks/internal/models"
)

// Data is the layout of a seed file. User passwords may be given either in
// plain text or already bcrypt-hashed.
type Data struct {
	Books []collection.Record `json:"books"`
	Users []models.User       `json:"users"`
}

// Books returns the built-in catalog. The first record keeps the "auhtor"
// misspelling of the source catalog; it is served as is.
func Books() []collection.Record {
	return []collection.Record{
		{"id": 1, "title": "Throne of Glass", "auhtor": "Sarah J. Maas"},
		{"id": 2, "title": "Vampire Academy", "author": "Richelle Mead"},
		{"id": 3, "title": "Poison Study", "author": "Maria V. Snyder"},
		{"id": 4, "title": "Riley Thorn and the Dead Guy Next Door", "author": "Lucy Score"},
		{"id": 5, "title": "Private Eye: A Tiger's Eye Mysetry", "author": "Alyssa Day"},
		{"id": 6, "title": "Touch of Power", "author": "Maria V. Snyder"},
		{"id": 7, "title": "A Court of Thorns and Roses", "author": "Sarah J. Maas"},
		{"id": 8, "title": "Storm Born", "author": "Richelle Mead"},
		{"id": 9, "title": "A Hoe Lot of Trouble", "author": "Heather Webber"},
		{"id": 10, "title": "It Takes a Witch", "author": "Heather Blake"},
	}
}

func plainUsers() []models.User {
	return []models.User{
		{
			ID:       1,
			Email:    "harry@hogwarts.edu",
			Password: "potter",
			SecurityQuestions: []models.SecurityQuestion{
				{Question: "What is your pet's name?", Answer: "Hedwig"},
				{Question: "What is your favorite book?", Answer: "Quidditch Through the Ages"},
				{Question: "What is your mother's maiden name?", Answer: "Evans"},
			},
		},
		{
			ID:       2,
			Email:    "hermione@hogwarts.edu",
			Password: "granger",
			SecurityQuestions: []models.SecurityQuestion{
				{Question: "What is your pet's name?", Answer: "Crookshanks"},
				{Question: "What is your favorite book?", Answer: "Hogwarts: A History"},
				{Question: "What is your mother's maiden name?", Answer: "Wilkins"},
			},
		},
	}
}

// Users returns the built-in user directory with passwords hashed at the given bcrypt cost.
func Users(cost int) ([]collection.Record, error) {
	return hashUsers(plainUsers(), cost)
}

// Load returns seed data from fileName, or the built-in data when fileName is empty.
func Load(fileName string, cost int) (books, users []collection.Record, err error) {
	if fileName == "" {
		users, err = Users(cost)
		if err != nil {
			return nil, nil, err
		}

		return Books(), users, nil
	}

	data, err := parseJSONFile(fileName)
	if err != nil {
		return nil, nil, err
	}

	users, err = hashUsers(data.Users, cost)
	if err != nil {
		return nil, nil, err
	}
	if data.Books == nil {
		data.Books = []collection.Record{}
	}

	return data.Books, users, nil
}

func parseJSONFile(fileName string) (*Data, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data Data
	if err := json.NewDecoder(file).Decode(&data); err != nil {
		return nil, fmt.Errorf("in internal/seed/seed.go/parseJSONFile(): error decoding %s: %w", fileName, err)
	}

	return &data, nil
}

func hashUsers(users []models.User, cost int) ([]collection.Record, error) {
	result := make([]collection.Record, 0, len(users))
	for _, usr := range users {
		if _, err := bcrypt.Cost([]byte(usr.Password)); err != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(usr.Password), cost)
			if err != nil {
				return nil, fmt.Errorf("in internal/seed/seed.go/hashUsers(): error hashing password of %s: %w", usr.Email, err)
			}
			usr.Password = string(hash)
		}

		result = append(result, collection.Record{
			"id":                usr.ID,
			"email":             usr.Email,
			"password":          usr.Password,
			"securityQuestions": usr.SecurityQuestions,
		})
	}

	return result, nil
}
