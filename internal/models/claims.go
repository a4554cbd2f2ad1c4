package models

import "github.com/golang-jwt/jwt"

// Claims carried by access tokens issued by the auth collaborator.
type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}
