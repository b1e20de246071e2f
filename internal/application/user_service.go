package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yourplaces/api/internal/domain/entity"
	repo "github.com/yourplaces/api/internal/domain/repository"
	"github.com/yourplaces/api/pkg/helpers"
	"github.com/yourplaces/api/pkg/mailer"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
)

const sessionTTL = 24 * time.Hour

func sessionKey(userID string) string {
	return "user:session:" + userID
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type UserService struct {
	Repo      repo.UserRepository
	JWT       *helpers.JWTManager
	GCS       *storage.Client
	GCSBucket string
	Redis     *redis.Client
	EmailPub  *helpers.RabbitPublisher
	Logger    *logrus.Logger
}

func NewUserService(r repo.UserRepository, jwt *helpers.JWTManager, gcs *storage.Client, gcsBucket string, rdb *redis.Client, emailPub *helpers.RabbitPublisher, logger *logrus.Logger) *UserService {
	return &UserService{
		Repo:      r,
		JWT:       jwt,
		GCS:       gcs,
		GCSBucket: gcsBucket,
		Redis:     rdb,
		EmailPub:  emailPub,
		Logger:    logger,
	}
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Signup registers a new user. The password is bcrypt-hashed before it
// touches the store; a duplicate email fails ErrEmailTaken and leaves the
// store unchanged. An uploaded avatar that cannot be attached (because the
// insert failed) is removed again.
func (s *UserService) Signup(ctx context.Context, in SignupInput, avatar io.Reader, filename, contentType string) (*entity.User, TokenPair, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}

	var avatarURL, objectPath string
	if avatar != nil && s.GCS != nil && s.GCSBucket != "" {
		objectPath = avatarObjectPath(filename)
		avatarURL, err = helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, avatar)
		if err != nil {
			return nil, TokenPair{}, err
		}
	}

	u := &entity.User{
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		AvatarURL: avatarURL,
		PlaceIDs:  []string{},
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		s.removeUploadedAvatar(ctx, objectPath)
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, TokenPair{}, ErrEmailTaken
		}
		return nil, TokenPair{}, err
	}

	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}

	s.queueWelcomeEmail(ctx, u)
	return u, pair, nil
}

// Authenticate validates email/password. The error is identical whether
// the email is unknown or the password is wrong.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, u.Email)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate access token failed")
		}
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, u.Email)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate refresh token failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"avatar_url": u.AvatarURL,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		}
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, sessionTTL)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// Refresh rotates the token pair. The refresh token must verify and the
// user's session must still be live.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*entity.User, TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if s.Redis != nil {
		n, rErr := s.Redis.Exists(ctx, sessionKey(u.ID)).Result()
		if rErr != nil || n == 0 {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// List returns all users. Password hashes never leave the repository
// projection.
func (s *UserService) List(ctx context.Context) ([]*entity.User, error) {
	return s.Repo.List(ctx)
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func avatarObjectPath(filename string) string {
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	return filepath.ToSlash(filepath.Join("avatars", id+ext))
}

func (s *UserService) removeUploadedAvatar(ctx context.Context, objectPath string) {
	if objectPath == "" || s.GCS == nil {
		return
	}
	if err := helpers.DeleteObject(ctx, s.GCS, s.GCSBucket, objectPath); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("object", objectPath).Warn("failed to remove uploaded avatar after aborted signup")
	}
}

func (s *UserService) queueWelcomeEmail(ctx context.Context, u *entity.User) {
	if s.EmailPub == nil {
		return
	}
	job := mailer.EmailJob{
		To:      u.Email,
		Subject: "Welcome to YourPlaces",
		Text:    "Hi " + u.Name + ", your account is ready. Start sharing the places you love.",
	}
	if err := s.EmailPub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("welcome email publish failed")
	}
}
