package domain

import "errors"

// Rental errors. Every failed call leaves asset state exactly as it was.
var (
	ErrOfferTooLow             = errors.New("offer is too low")
	ErrNotAuthorized           = errors.New("not authorized")
	ErrAcceptanceWindowExpired = errors.New("acceptance window expired")
	ErrAssetRented             = errors.New("asset is rented")
	ErrAssetContained          = errors.New("asset is inside a container")
	ErrNoDisturbActive         = errors.New("no-rent period is active")
	ErrContainerIsRented       = errors.New("container is rented")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrInsufficientApproval    = errors.New("insufficient approval")
	ErrInvalidPolicy           = errors.New("invalid no-rent policy")

	ErrNoOffer               = errors.New("no live offer")
	ErrInvalidOffer          = errors.New("invalid offer")
	ErrReentrantCall         = errors.New("reentrant call")
	ErrNotFound              = errors.New("not found")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrAssetAlreadyContained = errors.New("asset already inside a container")
	ErrContainerTooLarge     = errors.New("too many assets for a container")
	ErrInvalidContainer      = errors.New("invalid container")
	ErrClockRegression       = errors.New("clock cannot move backwards")
)
