package gateway

import (
	"crypto/sha256"
	"crypto/subtle"
	"os"

	"github.com/soyeahso/annobot/internal/config"
)

// Auth modes accepted in gateway.auth.mode.
const (
	AuthModeToken    = "token"
	AuthModePassword = "password"
	// AuthModeNone accepts any client. Validation only allows it on loopback.
	AuthModeNone = "none"
)

// AuthResult is the outcome of an authentication attempt.
type AuthResult struct {
	OK     bool   `json:"ok"`
	Method string `json:"method,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ResolvedAuth is the mode in force and the one secret clients must present.
type ResolvedAuth struct {
	Mode   string
	Secret string
}

// ResolveAuth picks the auth mode and its secret. Secrets come from the config
// first and the ANNOBOT_GATEWAY_TOKEN / ANNOBOT_GATEWAY_PASSWORD variables
// second. Without an explicit mode, a password alone selects password mode.
func ResolveAuth(cfg config.GatewayAuth) ResolvedAuth {
	token := cfg.Token
	if token == "" {
		token = os.Getenv("ANNOBOT_GATEWAY_TOKEN")
	}
	password := cfg.Password
	if password == "" {
		password = os.Getenv("ANNOBOT_GATEWAY_PASSWORD")
	}

	mode := cfg.Mode
	if mode == "" {
		mode = AuthModeToken
		if token == "" && password != "" {
			mode = AuthModePassword
		}
	}

	switch mode {
	case AuthModeToken:
		return ResolvedAuth{Mode: mode, Secret: token}
	case AuthModePassword:
		return ResolvedAuth{Mode: mode, Secret: password}
	default:
		return ResolvedAuth{Mode: mode}
	}
}

// Authorize checks the credentials of a connect request.
func Authorize(server ResolvedAuth, client *ConnectAuth) AuthResult {
	var presented string
	switch server.Mode {
	case AuthModeNone:
		return AuthResult{OK: true, Method: AuthModeNone}
	case AuthModeToken:
		if client != nil {
			presented = client.Token
		}
	case AuthModePassword:
		if client != nil {
			presented = client.Password
		}
	default:
		return AuthResult{Reason: "unknown auth mode: " + server.Mode}
	}

	switch {
	case server.Secret == "":
		return AuthResult{Reason: "server " + server.Mode + " not configured"}
	case client == nil:
		return AuthResult{Reason: "no credentials provided"}
	case presented == "":
		return AuthResult{Reason: server.Mode + " required"}
	case !safeEqual(presented, server.Secret):
		return AuthResult{Reason: server.Mode + "_mismatch"}
	}
	return AuthResult{OK: true, Method: server.Mode}
}

// safeEqual compares fixed-size digests so neither content nor length leaks
// through timing.
func safeEqual(a, b string) bool {
	ha, hb := sha256.Sum256([]byte(a)), sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
