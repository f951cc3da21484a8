package model

import "encoding/json"

const (
	GuestUsername = "Guest"
	UnknownRole   = "UNKNOWN"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenPair is the pair issued by /auth/login and /auth/refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType,omitempty"`
	ExpiresIn    int64  `json:"expiresIn,omitempty"`
}

// UnmarshalJSON accepts both camelCase and snake_case field names; the backend
// answers with access_token/refresh_token.
func (p *TokenPair) UnmarshalJSON(data []byte) error {
	var raw struct {
		AccessToken       string `json:"accessToken"`
		RefreshToken      string `json:"refreshToken"`
		TokenType         string `json:"tokenType"`
		ExpiresIn         int64  `json:"expiresIn"`
		AccessTokenSnake  string `json:"access_token"`
		RefreshTokenSnake string `json:"refresh_token"`
		TokenTypeSnake    string `json:"token_type"`
		ExpiresInSnake    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*p = TokenPair{
		AccessToken:  firstNonEmpty(raw.AccessToken, raw.AccessTokenSnake),
		RefreshToken: firstNonEmpty(raw.RefreshToken, raw.RefreshTokenSnake),
		TokenType:    firstNonEmpty(raw.TokenType, raw.TokenTypeSnake),
		ExpiresIn:    raw.ExpiresIn,
	}
	if p.ExpiresIn == 0 {
		p.ExpiresIn = raw.ExpiresInSnake
	}

	return nil
}

type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type SessionState struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
	Role          string `json:"role"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
