package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

type Role string

const (
	RolePublic Role = "public"
	RoleAdmin  Role = "admin"
)

// Policy maps (resource, operation) to the role required to perform it. One
// middleware consults it; handlers never branch on permissions themselves.
type Policy map[string]map[string]Role

func DefaultPolicy() Policy {
	catalog := map[string]Role{
		"list":     RolePublic,
		"retrieve": RolePublic,
		"create":   RoleAdmin,
		"update":   RoleAdmin,
		"delete":   RoleAdmin,
	}
	return Policy{
		"categories": catalog,
		"products":   catalog,
		"variants":   catalog,
		"orders": {
			"create":   RolePublic,
			"retrieve": RolePublic,
			"list":     RoleAdmin,
			"update":   RoleAdmin,
		},
		"prescription-request": {
			"create": RolePublic,
		},
	}
}

type Principal struct {
	UserID string
	Name   string
	Admin  bool
}

const principalKey = "principal"

// Authenticate parses the bearer token when one is present and stores the
// principal on the context. No token means anonymous, which is fine for
// guest checkout; a token that is present but invalid is rejected.
func Authenticate(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid token signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		var p Principal
		if v, ok := claims["user_id"].(string); ok {
			p.UserID = v
		}
		if v, ok := claims["name"].(string); ok {
			p.Name = v
		}
		if v, ok := claims["is_admin"].(bool); ok {
			p.Admin = v
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// Authorize gates one (resource, operation) pair against the policy table.
// Unknown pairs deny by default.
func Authorize(policy Policy, resource, operation string) gin.HandlerFunc {
	required := RoleAdmin
	if ops, ok := policy[resource]; ok {
		if role, ok := ops[operation]; ok {
			required = role
		}
	}
	return func(c *gin.Context) {
		if required == RolePublic {
			c.Next()
			return
		}
		p, ok := CurrentPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		if !p.Admin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin privileges required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
