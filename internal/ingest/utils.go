package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/findoc-io/findoc-analyzer/constants"
	"github.com/findoc-io/findoc-analyzer/internal/repository"
)

// AllowedExt checks whether a file extension is in the allowed set.
func AllowedExt(ext string) bool {
	ext = constants.NormalizeExt(ext)
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// ValidateTenant ensures the tenant exists before accepting files for it.
func ValidateTenant(ctx context.Context, repo repository.TenantRepository, tenantID uuid.UUID) error {
	if _, err := repo.GetByID(ctx, tenantID); err != nil {
		return fmt.Errorf("tenant %s: %w", tenantID, err)
	}
	return nil
}
