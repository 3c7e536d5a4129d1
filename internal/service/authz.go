package service

import (
	"github.com/noah-isme/institute-crm-api/internal/models"
	appErrors "github.com/noah-isme/institute-crm-api/pkg/errors"
)

// requireSuperAdmin gates privileged operations. The message never says why access was refused.
func requireSuperAdmin(p models.Principal) error {
	if !p.Authenticated() {
		return appErrors.Clone(appErrors.ErrUnauthorized, "unauthorized")
	}
	if !p.IsSuperAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "unauthorized")
	}
	return nil
}

func requireAuthenticated(p models.Principal) error {
	if !p.Authenticated() {
		return appErrors.Clone(appErrors.ErrUnauthorized, "unauthorized")
	}
	return nil
}
