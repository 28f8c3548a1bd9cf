package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/config"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/util"
)

type contextKey string

const ParticipantContextKey contextKey = "participant"

// GetParticipant returns the authenticated participant, nil when the request
// did not pass the auth middleware.
func GetParticipant(ctx context.Context) *model.Participant {
	if p, ok := ctx.Value(ParticipantContextKey).(*model.Participant); ok {
		return p
	}
	return nil
}

// Claims carried by a participant token. One token is minted per connection;
// the participant id is ephemeral, the user id is stable.
type Claims struct {
	UserID        string `json:"userId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	jwt.RegisteredClaims
}

type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// IssueToken mints a signed participant token with a fresh participant id.
func (m *AuthMiddleware) IssueToken(userID, displayName string) (string, string, error) {
	participantID := util.NewID()
	now := time.Now()

	claims := Claims{
		UserID:        userID,
		ParticipantID: participantID,
		DisplayName:   displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.TokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", err
	}
	return token, participantID, nil
}

// Parse validates a token and returns the participant it identifies.
func (m *AuthMiddleware) Parse(tokenString string) (*model.Participant, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" || claims.ParticipantID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &model.Participant{
		UserID:        claims.UserID,
		ParticipantID: claims.ParticipantID,
		DisplayName:   claims.DisplayName,
	}, nil
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Missing authentication token",
			})
			return
		}

		participant, err := m.Parse(token)
		if err != nil {
			log.Warn().Err(err).Msg("auth middleware: invalid token attempt")
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"error": "Invalid token",
			})
			return
		}

		ctx := context.WithValue(r.Context(), ParticipantContextKey, participant)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken reads the token from the query string first: websocket clients
// cannot set headers.
func extractToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
