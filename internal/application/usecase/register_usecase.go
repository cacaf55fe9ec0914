// internal/application/usecase/register_usecase.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	cartdom "shopez/internal/domain/cart"
	userdom "shopez/internal/domain/user"
)

var ErrRegisterInvalidArgument = errors.New("register: invalid argument")

// ProfileRepository persists the account profile side channel.
type ProfileRepository interface {
	Save(ctx context.Context, userID string, p userdom.Profile) error
}

// Mailer sends transactional mail. Mail must never fail a registration;
// failures are logged and swallowed by the usecase.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// RegisterUsecase completes account creation after the identity provider has
// issued the user id: it seeds an empty remote cart, writes the profile and
// sends a best-effort welcome mail.
type RegisterUsecase struct {
	carts    cartdom.RemoteStore
	profiles ProfileRepository
	mailer   Mailer // optional
	from     string
	clock    Clock
}

func NewRegisterUsecase(carts cartdom.RemoteStore, profiles ProfileRepository, mailer Mailer, from string) *RegisterUsecase {
	return &RegisterUsecase{
		carts:    carts,
		profiles: profiles,
		mailer:   mailer,
		from:     strings.TrimSpace(from),
		clock:    systemClock{},
	}
}

// NewRegisterUsecaseWithClock is useful for tests.
func NewRegisterUsecaseWithClock(carts cartdom.RemoteStore, profiles ProfileRepository, mailer Mailer, from string, clock Clock) *RegisterUsecase {
	uc := NewRegisterUsecase(carts, profiles, mailer, from)
	if clock != nil {
		uc.clock = clock
	}
	return uc
}

func (uc *RegisterUsecase) Register(ctx context.Context, userID, fullName, email string) error {
	if uc == nil || uc.carts == nil || uc.profiles == nil {
		return errors.New("register: usecase is not configured")
	}

	uid := strings.TrimSpace(userID)
	name := strings.TrimSpace(fullName)
	addr := strings.TrimSpace(email)
	if uid == "" || name == "" || addr == "" {
		return ErrRegisterInvalidArgument
	}

	if err := uc.carts.Seed(ctx, uid); err != nil {
		return fmt.Errorf("register: seed cart: %w", err)
	}

	profile := userdom.Profile{
		FullName:  name,
		Email:     addr,
		CreatedAt: uc.clock.Now().UTC(),
	}
	if err := uc.profiles.Save(ctx, uid, profile); err != nil {
		return fmt.Errorf("register: save profile: %w", err)
	}

	if uc.mailer != nil && uc.from != "" {
		body := fmt.Sprintf("Hi %s,\n\nYour ShopEZ account is ready. Happy shopping!", name)
		if err := uc.mailer.Send(ctx, uc.from, addr, "Welcome to ShopEZ", body); err != nil {
			log.Printf("[register] welcome mail failed to=%s: %v", addr, err)
		}
	}

	return nil
}
