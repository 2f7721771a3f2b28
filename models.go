package auth

import (
	"strings"
	"time"

	"github.com/goliatone/go-persistence-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleMember is the default role for registered users
	RoleMember UserRole = "member"
	// RoleAdmin is an administrative role
	RoleAdmin UserRole = "admin"
)

func init() {
	persistence.RegisterModel((*User)(nil))
	persistence.RegisterModel((*Session)(nil))
}

// User is the credential model. The password hash never leaves the
// persistence boundary: it is excluded from JSON serialization entirely.
type User struct {
	bun.BaseModel     `bun:"table:users,alias:usr"`
	ID                uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role              UserRole       `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName         string         `bun:"first_name" json:"first_name,omitempty"`
	LastName          string         `bun:"last_name" json:"last_name,omitempty"`
	Username          string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email             string         `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone             string         `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash      string         `bun:"password_hash" json:"-"`
	TokenVersion      int            `bun:"token_version,notnull,default:0" json:"-"`
	PasswordChangedAt *time.Time     `bun:"password_changed_at,nullzero" json:"-"`
	LoginAttempts     int            `bun:"login_attempts" json:"-"`
	LoginAttemptAt    *time.Time     `bun:"login_attempt_at" json:"-"`
	LoggedInAt        *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	Metadata          map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt         *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"-"`
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// Session is one server side login record. Sessions are deactivated, never
// deleted, so rows stay available for auditing until garbage collection.
type Session struct {
	bun.BaseModel  `bun:"table:sessions,alias:ses"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID         uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User           *User      `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	RefreshTokenID string     `bun:"refresh_token_id,notnull,unique" json:"-"`
	UserAgent      string     `bun:"user_agent" json:"user_agent,omitempty"`
	IPAddress      string     `bun:"ip_address" json:"ip_address,omitempty"`
	Active         bool       `bun:"active,notnull,default:true" json:"active"`
	LastUsedAt     *time.Time `bun:"last_used_at,nullzero" json:"last_used_at,omitempty"`
	ExpiresAt      *time.Time `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsUsable reports whether the session can still anchor a refresh.
func (s *Session) IsUsable(now time.Time) bool {
	if s == nil || !s.Active {
		return false
	}
	if s.ExpiresAt != nil && s.ExpiresAt.Before(now) {
		return false
	}
	return true
}

// NormalizeEmail lowercases and trims an email so lookups and uniqueness
// checks are case insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PublicProfile is the client facing account shape. It exists so the
// password hash and throttling counters can never serialize into a response.
type PublicProfile struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Username   string     `json:"username"`
	FirstName  string     `json:"first_name,omitempty"`
	LastName   string     `json:"last_name,omitempty"`
	Role       string     `json:"role"`
	LoggedInAt *time.Time `json:"loggedin_at,omitempty"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}

// PublicProfileFromUser maps a credential row to its public shape.
func PublicProfileFromUser(user *User) PublicProfile {
	if user == nil {
		return PublicProfile{}
	}
	return PublicProfile{
		ID:         user.ID.String(),
		Email:      user.Email,
		Username:   user.Username,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Role:       string(user.Role),
		LoggedInAt: user.LoggedInAt,
		CreatedAt:  user.CreatedAt,
	}
}
