package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"fleetbook/internal/domain/user"
	"fleetbook/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthMiddleware struct {
	jwtService *jwt.Service
}

const (
	ctxUserIDKey         = "user_id"
	ctxUserRoleKey       = "user_role"
	ctxGuestBookingIDKey = "guest_booking_id"
)

func NewAuthMiddleware(jwtService *jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(authHeader[len("Bearer "):])
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		setUserContext(c, claims)
		c.Next()
	}
}

// RequireStaff layers a role check on top of RequireAuth. Staff and admin
// both qualify.
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			// Should be used after RequireAuth()
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			c.Abort()
			return
		}

		if !role.IsStaff() {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// OptionalAuth authenticates the request if a token is present, but does not
// abort on failure. Guest checkouts arrive here with no token at all.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			c.Next()
			return
		}

		setUserContext(c, claims)
		c.Next()
	}
}

// AllowGuestToken accepts either a regular user token or a booking-scoped
// guest token. Guest tokens set only the guest booking id; the handler
// decides whether it matches the requested resource.
func (m *AuthMiddleware) AllowGuestToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		if claims, err := m.jwtService.ValidateToken(token); err == nil {
			setUserContext(c, claims)
			c.Next()
			return
		}

		guestClaims, err := m.jwtService.ValidateGuestToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxGuestBookingIDKey, guestClaims.BookingID)
		c.Next()
	}
}

func setUserContext(c *gin.Context, claims *jwt.Claims) {
	c.Set(ctxUserIDKey, claims.UserID)
	c.Set(ctxUserRoleKey, user.Role(claims.Role))
	c.Set("jwt_claims", map[string]any{
		"user_id": claims.UserID.String(),
		"role":    claims.Role,
	})
}

func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(ctxUserIDKey)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := userID.(uuid.UUID)
	return id, ok
}

func GetUserRole(c *gin.Context) (user.Role, bool) {
	userRole, exists := c.Get(ctxUserRoleKey)
	if !exists {
		return "", false
	}

	role, ok := userRole.(user.Role)
	return role, ok
}

func GetGuestBookingID(c *gin.Context) (uuid.UUID, bool) {
	bookingID, exists := c.Get(ctxGuestBookingIDKey)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := bookingID.(uuid.UUID)
	return id, ok
}
