package suppliers

import (
	"fmt"
	"strings"

	internalShared "github.com/atlas-ims/atlas-ims/internal/shared"
)

func (s *Service) validate(supplier Supplier) error {
	if strings.TrimSpace(supplier.Name) == "" {
		return fmt.Errorf("%w: supplier name is required", internalShared.ErrInvalidRequest)
	}
	return nil
}
