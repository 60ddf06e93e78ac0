package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a LinguaLink account.
type User struct {
	ID               primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	FullName         string               `bson:"full_name" json:"fullName"`
	Email            string               `bson:"email" json:"email"`
	HashedPassword   string               `bson:"hashed_password" json:"-"`
	Bio              string               `bson:"bio" json:"bio"`
	NativeLanguage   string               `bson:"native_language" json:"nativeLanguage"`
	LearningLanguage string               `bson:"learning_language" json:"learningLanguage"`
	Location         string               `bson:"location" json:"location"`
	ProfilePic       string               `bson:"profile_pic" json:"profilePic"`
	IsOnboarded      bool                 `bson:"is_onboarded" json:"isOnboarded"`
	Friends          []primitive.ObjectID `bson:"-" json:"friends"` // derived from the friendships collection
	LastActiveAt     time.Time            `bson:"last_active_at,omitempty" json:"lastActiveAt,omitempty"`
	CreatedAt        time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time            `bson:"updated_at" json:"updatedAt"`
}

// PublicUser is the profile other users get to see.
type PublicUser struct {
	ID               primitive.ObjectID `json:"_id"`
	FullName         string             `json:"fullName"`
	Bio              string             `json:"bio,omitempty"`
	ProfilePic       string             `json:"profilePic"`
	NativeLanguage   string             `json:"nativeLanguage"`
	LearningLanguage string             `json:"learningLanguage"`
	Location         string             `json:"location,omitempty"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:               u.ID,
		FullName:         u.FullName,
		Bio:              u.Bio,
		ProfilePic:       u.ProfilePic,
		NativeLanguage:   u.NativeLanguage,
		LearningLanguage: u.LearningLanguage,
		Location:         u.Location,
	}
}

// OnboardingProfile carries the fields a user fills in after signup.
type OnboardingProfile struct {
	FullName         string `json:"fullName"`
	Bio              string `json:"bio"`
	NativeLanguage   string `json:"nativeLanguage"`
	LearningLanguage string `json:"learningLanguage"`
	Location         string `json:"location"`
	ProfilePic       string `json:"profilePic"`
}

// MissingFields lists the required onboarding fields that are empty or blank, using their JSON names.
func (p OnboardingProfile) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(p.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if strings.TrimSpace(p.Bio) == "" {
		missing = append(missing, "bio")
	}
	if strings.TrimSpace(p.NativeLanguage) == "" {
		missing = append(missing, "nativeLanguage")
	}
	if strings.TrimSpace(p.LearningLanguage) == "" {
		missing = append(missing, "learningLanguage")
	}
	if strings.TrimSpace(p.Location) == "" {
		missing = append(missing, "location")
	}
	return missing
}
