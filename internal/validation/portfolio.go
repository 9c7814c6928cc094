package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/fincrate/fincrate-backend/internal/api/request"
)

// ValidateCreatePortfolio validates a portfolio creation request.
// The name is required and limited to 100 characters.
func ValidateCreatePortfolio(req request.CreatePortfolioRequest) error {
	errors := make(map[string]string)

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errors["name"] = "name is required"
	} else if utf8.RuneCountInString(name) > 100 {
		errors["name"] = "name must be 100 characters or less"
	}

	if utf8.RuneCountInString(req.Description) > 1000 {
		errors["description"] = "description must be 1000 characters or less"
	}

	return result(errors)
}
