package models

import (
	jwt "github.com/dgrijalva/jwt-go"
)

// MyClaims is the JWT claim set carried by every authenticated request.
type MyClaims struct {
	UserID string `json:"userid"`
	jwt.StandardClaims
}
