package auth

import (
	"os"
)

// JwtKey signs every session token. Override it through GOG_JWT_KEY in any
// real deployment.
var JwtKey = jwtKeyFromEnv()

func jwtKeyFromEnv() []byte {
	if key := os.Getenv("GOG_JWT_KEY"); key != "" {
		return []byte(key)
	}
	return []byte("your_secret_key")
}
