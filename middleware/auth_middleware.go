package middleware

import (
	"strings"

	"github.com/drumok/cashflowpre/config"
	"github.com/drumok/cashflowpre/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

const (
	localClaims  = "claims"
	localUserID  = "userID"
	localProfile = "profile"
)

var errNoClaims = fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")

// Authenticate verifies the bearer token issued by the identity provider
// and stores its claims on the request.
func Authenticate(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Missing authorization header"})
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid token format"})
	}

	claims := &models.JwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid or expired token"})
	}

	if iss := config.AppConfig.JWTIssuer; iss != "" && !claims.VerifyIssuer(iss, true) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Token issuer not accepted"})
	}
	if claims.Identity() == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Token has no subject"})
	}

	c.Locals(localClaims, claims)
	c.Locals(localUserID, claims.Identity())
	return c.Next()
}

// ExtractClaims returns the claims stored by Authenticate.
func ExtractClaims(c *fiber.Ctx) (*models.JwtClaims, error) {
	claims, ok := c.Locals(localClaims).(*models.JwtClaims)
	if !ok || claims == nil {
		return nil, errNoClaims
	}
	return claims, nil
}

// UserID returns the authenticated user id, or "" outside Authenticate.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}
