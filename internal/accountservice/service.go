// Package accountservice manages business logic layer of accounts.
package accountservice

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/dbpkg"
)

// Repo provides data access layer interface needed by account service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package accountservice
type Repo interface {
	Create(ctx context.Context, arg domain.CreateAccountParams) (domain.Account, error)
	Get(ctx context.Context, id int32, owner string) (domain.Account, error)
	List(ctx context.Context, owner string, limit, offset int32) ([]domain.Account, error)
	UpdatePinHash(ctx context.Context, id int32, owner, pinHash string) (domain.Account, error)
	Delete(ctx context.Context, id int32, owner string) error
}

// PINHasher turns a plaintext PIN into its stored form.
type PINHasher interface {
	HashPIN(ctx context.Context, pin string) (string, error)
}

// Service facilitates account service layer logic.
type Service struct {
	repo  Repo
	guard PINHasher
}

// New returns account service struct to manage account bussines logic.
func New(ar Repo, guard PINHasher) *Service {
	return &Service{
		repo:  ar,
		guard: guard,
	}
}

// Create creates and returns an empty account protected by pin.
func (s *Service) Create(ctx context.Context, owner, pin string) (domain.Account, error) {
	pinHash, err := s.guard.HashPIN(ctx, pin)
	if err != nil {
		return domain.Account{}, err
	}

	account, err := s.repo.Create(ctx, domain.CreateAccountParams{Owner: owner, PinHash: pinHash})
	if err != nil {
		return domain.Account{}, err
	}

	zerolog.Ctx(ctx).Info().Int32("account_id", account.ID).Msg("account created")

	return account, nil
}

// Get returns the owner's account with the given ID.
func (s *Service) Get(ctx context.Context, id int32, owner string) (domain.Account, error) {
	return s.repo.Get(ctx, id, owner)
}

// List returns accounts that are owned by the given user.
func (s *Service) List(ctx context.Context, owner string, pageSize, pageID int32) ([]domain.Account, error) {
	limit := pageSize
	offset := dbpkg.PageOffset(pageID, pageSize)

	accounts, err := s.repo.List(ctx, owner, limit, offset)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// UpdatePIN replaces the PIN of the owner's account.
func (s *Service) UpdatePIN(ctx context.Context, id int32, owner, pin string) (domain.Account, error) {
	pinHash, err := s.guard.HashPIN(ctx, pin)
	if err != nil {
		return domain.Account{}, err
	}

	return s.repo.UpdatePinHash(ctx, id, owner, pinHash)
}

// Delete removes the owner's account and its journal entries.
func (s *Service) Delete(ctx context.Context, id int32, owner string) error {
	if err := s.repo.Delete(ctx, id, owner); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Info().Int32("account_id", id).Msg("account deleted")

	return nil
}
