package models

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsStaff      bool
	CreatedAt    time.Time
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}
