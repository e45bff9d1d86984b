package service

import (
	"context"
	"errors"
	"fmt"

	"sponsorhub-backend/internal/domain"
	"sponsorhub-backend/internal/repository"
)

type orgAuthorizer struct {
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
}

// NewOrgAuthorizer treats the organization's creator and its ADMIN/SUPER_ADMIN members as admins
func NewOrgAuthorizer(orgRepo repository.OrganizationRepository, userRepo repository.UserRepository) Authorizer {
	return &orgAuthorizer{orgRepo: orgRepo, userRepo: userRepo}
}

func (a *orgAuthorizer) IsAdmin(ctx context.Context, userID, orgID int32) (bool, error) {
	org, err := a.orgRepo.GetByID(ctx, orgID)
	if err != nil {
		return false, err
	}
	if org.CreatedBy == userID {
		return true, nil
	}

	uo, err := a.userRepo.GetUserOrg(ctx, userID, orgID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return uo.Role.IsAdmin(), nil
}

func requireAdmin(ctx context.Context, authz Authorizer, userID, orgID int32) error {
	ok, err := authz.IsAdmin(ctx, userID, orgID)
	if err != nil {
		return fmt.Errorf("failed to check admin rights: %w", err)
	}
	if !ok {
		return domain.ErrNotOrgAdmin
	}
	return nil
}
