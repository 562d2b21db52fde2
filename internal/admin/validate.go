package admin

import (
	"fmt"
	"strings"

	"github.com/iliyamo/stickerverse/internal/model"
)

func validateProduct(p model.Product) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case p.PriceCents < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	return validateMaterials(p.Materials)
}

func validatePatch(p model.ProductPatch) error {
	if p.Name != nil && *p.Name == "" {
		return fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	if p.PriceCents != nil && *p.PriceCents < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	}
	if p.Stock != nil && *p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}
	if p.Materials != nil {
		return validateMaterials(*p.Materials)
	}
	return nil
}

func validateMaterials(ms []string) error {
	if len(ms) == 0 {
		return fmt.Errorf("%w: at least one material is required", ErrInvalidInput)
	}
	for _, m := range ms {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("%w: material names must not be blank", ErrInvalidInput)
		}
	}
	return nil
}
