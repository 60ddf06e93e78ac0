package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/lingualink/lingualink-backend/internal/models"
	"github.com/lingualink/lingualink-backend/internal/repository"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const minPasswordLength = 6

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// UserService encapsulates signup, login and profile operations.
type UserService struct {
	repo        UserStore
	friendships FriendshipStore
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserStore, friendships FriendshipStore) *UserService {
	return &UserService{
		repo:        repo,
		friendships: friendships,
	}
}

// Signup registers a new user after hashing their password.
func (s *UserService) Signup(ctx context.Context, fullName, email, password string) (*models.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))

	if fullName == "" || email == "" || password == "" {
		logrus.Warn("Missing required fields during signup")
		return nil, newError(ErrInvalidOperation, "All fields are required")
	}
	if len(password) < minPasswordLength {
		return nil, newError(ErrInvalidOperation, fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	if !emailRegex.MatchString(email) {
		logrus.WithField("email", email).Warn("Invalid email format during signup")
		return nil, newError(ErrInvalidOperation, "Invalid email format")
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		logrus.WithField("email", email).Warn("Email already in use")
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FullName:       fullName,
		Email:          email,
		HashedPassword: string(hashedPwd),
		ProfilePic:     randomAvatar(),
	}

	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		logrus.WithError(err).Error("User signup failed")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	created.Friends = []primitive.ObjectID{}
	logrus.WithField("userID", created.ID.Hex()).Info("User signed up successfully")
	return created, nil
}

// AuthenticateUser verifies the email and password and returns the user if they match.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, newError(ErrInvalidOperation, "All fields are required")
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logrus.WithField("email", email).Warn("Login attempt for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		logrus.WithField("email", email).Warn("Invalid credentials")
		return nil, ErrInvalidCredentials
	}

	if err := s.withFriends(ctx, user); err != nil {
		return nil, err
	}

	logrus.WithField("userID", user.ID.Hex()).Info("User authenticated successfully")
	return user, nil
}

// GetUser returns a user's own profile, including their friend ids.
func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "failed to get user")
	}
	if err := s.withFriends(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Onboard completes a user's profile and marks them discoverable.
func (s *UserService) Onboard(ctx context.Context, id primitive.ObjectID, profile models.OnboardingProfile) (*models.User, error) {
	if missing := profile.MissingFields(); len(missing) > 0 {
		return nil, newError(ErrInvalidOperation,
			fmt.Sprintf("All fields are required. Missing: %s", strings.Join(missing, ", ")))
	}

	update := map[string]interface{}{
		"full_name":         strings.TrimSpace(profile.FullName),
		"bio":               strings.TrimSpace(profile.Bio),
		"native_language":   strings.ToLower(strings.TrimSpace(profile.NativeLanguage)),
		"learning_language": strings.ToLower(strings.TrimSpace(profile.LearningLanguage)),
		"location":          strings.TrimSpace(profile.Location),
		"is_onboarded":      true,
	}
	if profile.ProfilePic != "" {
		update["profile_pic"] = profile.ProfilePic
	}

	user, err := s.repo.UpdateUser(ctx, id, update)
	if err != nil {
		return nil, notFoundAs(err, ErrUserNotFound, "failed to onboard user")
	}
	if err := s.withFriends(ctx, user); err != nil {
		return nil, err
	}

	logrus.WithField("userID", id.Hex()).Info("User onboarded")
	return user, nil
}

// UpdateLastActive records that the user just made a request.
func (s *UserService) UpdateLastActive(ctx context.Context, id primitive.ObjectID) error {
	return s.repo.UpdateLastActive(ctx, id)
}

func (s *UserService) withFriends(ctx context.Context, user *models.User) error {
	ids, err := s.friendships.GetFriendIDs(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to get friend IDs: %w", err)
	}
	user.Friends = ids
	return nil
}

// randomAvatar picks one of the 100 public placeholder avatars.
func randomAvatar() string {
	return fmt.Sprintf("https://avatar.iran.liara.run/public/%d.png", rand.Intn(100)+1)
}
