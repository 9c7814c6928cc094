package marketdata

import (
	"fmt"
	"strings"

	"github.com/fincrate/fincrate-backend/internal/apperrors"
)

// OutputSize selects how many calendar days of history are requested.
type OutputSize string

const (
	// Compact is the default size: the most recent 100 days.
	Compact OutputSize = "compact"
	// Full covers the most recent 365 days.
	Full OutputSize = "full"
)

// Days returns the number of calendar days covered by the size.
func (s OutputSize) Days() int {
	if s == Full {
		return 365
	}
	return 100
}

// ParseOutputSize validates an outputsize query value. An empty value means Compact.
func ParseOutputSize(value string) (OutputSize, error) {
	switch OutputSize(strings.ToLower(strings.TrimSpace(value))) {
	case "", Compact:
		return Compact, nil
	case Full:
		return Full, nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidOutputSize, value)
	}
}
