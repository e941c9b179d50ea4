package report

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const attestationIssuer = "catalogrunner"

// Attestation is the signed statement about a run: which run, whether it
// passed, and the digest of the report document.
type Attestation struct {
	RunID    string   `json:"run_id"`
	Passed   bool     `json:"passed"`
	Backends []string `json:"backends"`
	Digest   string   `json:"sha256"`
	jwt.RegisteredClaims
}

// Digest returns the hex SHA-256 of a document
func Digest(doc []byte) string {
	sum := sha256.Sum256(doc)
	return hex.EncodeToString(sum[:])
}

// Attest signs an HS256 token for the run and its rendered document
func Attest(run *Run, doc []byte, key []byte) (string, error) {
	if len(key) == 0 {
		return "", errors.New("empty signing key")
	}

	issuedAt := run.FinishedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}

	claims := Attestation{
		RunID:    run.ID,
		Passed:   run.Passed(),
		Backends: run.Backends,
		Digest:   Digest(doc),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   attestationIssuer,
			Subject:  run.ID,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("failed to sign attestation: %w", err)
	}
	return signed, nil
}

// VerifyAttestation validates the token signature and issuer and returns its claims
func VerifyAttestation(tokenString string, key []byte) (*Attestation, error) {
	claims := &Attestation{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(attestationIssuer))
	if err != nil {
		return nil, fmt.Errorf("invalid attestation: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid attestation")
	}
	return claims, nil
}

// Matches reports whether the attestation covers doc
func (a *Attestation) Matches(doc []byte) bool {
	return a.Digest == Digest(doc)
}
