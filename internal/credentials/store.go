// Package credentials is the Credential Store: known accounts, their
// password hashes and the lookups the Session Manager performs.
package credentials

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/cribfeed/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Store looks up and registers accounts.
//
// FindByEmail and FindByID return common.ErrNotFound for unknown accounts.
// Add fails with common.ErrAccountExists when the email is taken.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Add(ctx context.Context, account *models.Account, passwordHash []byte) error
	Verify(ctx context.Context, email, password string) (bool, error)
}

// EmailKey is the lookup key for an email address. Matching is
// case-insensitive and ignores surrounding whitespace.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes password with bcrypt at the given cost. A cost of 0
// selects bcrypt.DefaultCost.
func HashPassword(password string, cost int) ([]byte, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

// dummyHash is compared against when the email is unknown so a miss costs
// the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("cribfeed-dummy-password"), bcrypt.DefaultCost)

func checkPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
