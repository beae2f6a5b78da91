package products

import (
	"fmt"
	"strings"

	internalShared "github.com/atlas-ims/atlas-ims/internal/shared"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", internalShared.ErrInvalidRequest)
	}
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("%w: product sku is required", internalShared.ErrInvalidRequest)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must be non-negative", internalShared.ErrInvalidRequest)
	}
	if p.CategoryID <= 0 || p.SupplierID <= 0 {
		return fmt.Errorf("%w: category and supplier are required", internalShared.ErrInvalidRequest)
	}
	return nil
}
