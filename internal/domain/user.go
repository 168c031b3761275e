package domain

import (
	"time"

	"github.com/google/uuid"
)

// User roles. Admin roles bypass the premium gate.
const (
	RoleUser          = "user"
	RolePromoter      = "promoter"
	RoleRegionalAdmin = "regional_admin"
	RoleSuperAdmin    = "super_admin"
)

// IsAdminRole reports whether the role grants platform-wide access.
func IsAdminRole(role string) bool {
	return role == RoleRegionalAdmin || role == RoleSuperAdmin
}

// NotificationPreferences controls which delivery channels a user receives.
type NotificationPreferences struct {
	EmailNotifications bool `json:"emailNotifications"`
	PushNotifications  bool `json:"pushNotifications"`
	DailyReports       bool `json:"dailyReports"`
}

// DefaultPreferences enables email and push for new accounts.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{EmailNotifications: true, PushNotifications: true}
}

// User is a platform account. SubscriptionID is a forward reference to the
// user's current subscription record (nil for free accounts).
type User struct {
	ID             string                  `json:"id"`
	Email          string                  `json:"email"`
	Password       string                  `json:"-"`
	Name           string                  `json:"name"`
	Role           string                  `json:"role"`
	SubscriptionID *string                 `json:"subscriptionId,omitempty"`
	FCMTokens      []string                `json:"-"`
	Preferences    NotificationPreferences `json:"preferences"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// NewUserID generates a new user ID.
func NewUserID() string {
	return uuid.New().String()
}

// LoginRequest is the input for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the input for POST /api/auth/register.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

// LoginUser is the user subset returned on login.
type LoginUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// LoginResponse wraps a signed token and the authenticated user.
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

// JWTClaims is the decoded token payload.
type JWTClaims struct {
	Sub   string
	Email string
	Role  string
}

// UserResponse is the API representation of a user.
type UserResponse struct {
	ID          string                  `json:"id"`
	Email       string                  `json:"email"`
	Name        string                  `json:"name"`
	Role        string                  `json:"role"`
	Preferences NotificationPreferences `json:"preferences"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// UpdatePreferencesRequest carries partial preference updates; nil fields are
// left unchanged.
type UpdatePreferencesRequest struct {
	EmailNotifications *bool `json:"emailNotifications"`
	PushNotifications  *bool `json:"pushNotifications"`
	DailyReports       *bool `json:"dailyReports"`
}
