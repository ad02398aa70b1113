package models

import "time"

type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	Encrypted    bool      `json:"encrypted"`
	Admin        bool      `json:"admin"`
	Tier         int       `json:"tier"`
	CreatedAt    time.Time `json:"created_at"`
}
