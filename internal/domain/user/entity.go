// internal/domain/user/entity.go
package user

import (
	"strings"
	"time"
)

// Session identifies the authenticated user driving the cart engine. It is a
// read-only input owned by the identity provider; the zero value means
// "no session". The engine re-initializes all cart state whenever it changes.
type Session struct {
	UID string
}

// Active reports whether the session carries a usable user id.
func (s Session) Active() bool {
	return strings.TrimSpace(s.UID) != ""
}

// Profile is written once at account creation. The sync engine never reads it.
type Profile struct {
	FullName  string    `json:"fullName" firestore:"fullName"`
	Email     string    `json:"email" firestore:"email"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}
