package main

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"log"
)

type AuthenticationService struct {
	credentials map[UserKey]string
	tokens      map[string]UserKey
}

func newAuthenticationService(credentials map[UserKey]string) *AuthenticationService {
	if len(credentials) == 0 {
		log.Fatal("Authentication credentials missing")
	}

	tokens := map[string]UserKey{}
	for user, password := range credentials {
		tokens[accessToken(user, password)] = user
	}

	return &AuthenticationService{
		credentials: credentials,
		tokens:      tokens,
	}
}

func (service *AuthenticationService) verifyCredentials(user UserKey, password string) bool {
	userPassword, userExists := service.credentials[user]
	return userExists && subtle.ConstantTimeCompare([]byte(password), []byte(userPassword)) == 1
}

func (service *AuthenticationService) getUser(token string) UserKey {
	return service.tokens[token]
}

func (service *AuthenticationService) getToken(user UserKey) string {
	if password, userExists := service.credentials[user]; userExists {
		return accessToken(user, password)
	}
	return ""
}

func accessToken(user UserKey, password string) string {
	hash := sha256.Sum256([]byte(string(user) + ":" + password))
	return base64.StdEncoding.EncodeToString(hash[:])
}
