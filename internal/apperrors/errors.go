package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist
	// or is not owned by the requesting user.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrUserNotFound indicates that a user with the given ID does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrAssetNotFound indicates that an asset with the given symbol does not exist.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrHoldingNotFound indicates that a portfolio holds no position in the asset.
	ErrHoldingNotFound = errors.New("holding not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInsufficientShares indicates that a sell transaction cannot be completed
	// because the portfolio does not hold enough of the asset.
	ErrInsufficientShares = errors.New("insufficient quantity for sale")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrInvalidTradeKind indicates a transaction type other than buy or sell.
	ErrInvalidTradeKind = errors.New("invalid transaction type")

	// ErrDuplicateEntry indicates that an entity with the same unique constraint already exists.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates a malformed batch or query request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidOutputSize indicates an outputsize other than compact or full.
	ErrInvalidOutputSize = errors.New("outputsize must be compact or full")

	// ErrUnauthenticated indicates that no authenticated user is attached to the request.
	ErrUnauthenticated = errors.New("authentication token required")
)

// Market data errors classify failures of upstream price sources.
var (
	// ErrNotConfigured indicates that no upstream credential is available for the request.
	ErrNotConfigured = errors.New("market data source not configured")

	// ErrRateLimited indicates that the upstream source throttled the request.
	ErrRateLimited = errors.New("market data rate limit reached")

	// ErrSymbolNotFound indicates that the upstream source returned no usable data for a symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrUpstream indicates a transport failure or non-2xx response from a source.
	ErrUpstream = errors.New("market data upstream error")

	// ErrUpstreamUnavailable indicates that every symbol of a batch request failed.
	ErrUpstreamUnavailable = errors.New("market data unavailable")
)

// Operation failure errors are user-facing messages for failed retrievals.
var (
	ErrFailedToRetrievePortfolios   = errors.New("failed to retrieve portfolios")
	ErrFailedToRetrievePortfolio    = errors.New("failed to retrieve portfolio")
	ErrFailedToCreatePortfolio      = errors.New("failed to create portfolio")
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToCreateTransaction    = errors.New("failed to create transaction")
	ErrFailedToBuildTimeline        = errors.New("failed to build portfolio timeline")
)

// UpstreamUnavailableError is returned when a batch valuation could not fetch
// history for any of its symbols.
type UpstreamUnavailableError struct {
	FailedSymbols []string
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("%s: all symbols failed (%s)", ErrUpstreamUnavailable, strings.Join(e.FailedSymbols, ", "))
}

// Is reports ErrUpstreamUnavailable as a match so callers can use errors.Is.
func (e *UpstreamUnavailableError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}
