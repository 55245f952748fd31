package utils // package utils provides helpers for access tokens and password hashing

import (
    "errors"
    "fmt"
    "time"

    "github.com/golang-jwt/jwt/v5"

    "github.com/iliyamo/festival-booking/internal/model"
)

// AccessToken is a signed HS256 JWT and its expiry.
type AccessToken struct {
    Token string
    Exp   time.Time
}

// Claims are the fields the API reads back from an access token.
type Claims struct {
    UserID uint64
    Role   model.Role
}

// NewAccessToken signs a token carrying sub, role, exp and iat.
func NewAccessToken(secret string, userID uint64, role model.Role, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": string(role),
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies signature, algorithm and expiry.
func ParseAccessToken(secret, raw string) (Claims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil {
        return Claims{}, err
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok || !tok.Valid {
        return Claims{}, errors.New("invalid token claims")
    }
    // JSON numbers decode as float64.
    sub, ok := mc["sub"].(float64)
    if !ok || sub <= 0 {
        return Claims{}, fmt.Errorf("invalid subject claim")
    }
    roleStr, _ := mc["role"].(string)
    role, err := model.ParseRole(roleStr)
    if err != nil {
        return Claims{}, err
    }
    return Claims{UserID: uint64(sub), Role: role}, nil
}
