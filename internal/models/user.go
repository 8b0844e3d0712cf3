package models

import "time"

type User struct {
	ID           string     `bson:"_id,omitempty" json:"id"`
	Email        string     `bson:"email" json:"email"`
	Password     string     `bson:"password" json:"-"`
	FirstName    string     `bson:"first_name,omitempty" json:"first_name,omitempty"`
	LastName     string     `bson:"last_name,omitempty" json:"last_name,omitempty"`
	Image        string     `bson:"image,omitempty" json:"image,omitempty"`
	Bio          string     `bson:"bio,omitempty" json:"bio,omitempty"`
	ProfileSetup bool       `bson:"profile_setup" json:"profile_setup"`
	IsOnline     bool       `bson:"is_online" json:"is_online"`
	LastSeen     *time.Time `bson:"last_seen,omitempty" json:"last_seen,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}
