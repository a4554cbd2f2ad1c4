package models

import (
	"errors"
	"fmt"
)

var (
	ErrNoRecord     = errors.New("models: no matching record found")
	ErrValidation   = errors.New("models: validation failed")
	ErrUnauthorized = errors.New("models: unauthorized")
	ErrForbidden    = errors.New("models: forbidden")
)

// Validation errors wrap ErrValidation so handlers can map the whole family
// to a 4xx response with a single errors.Is check.
var (
	ErrBothTargets             = fmt.Errorf("%w: donation target must be an organization or an event, not both", ErrValidation)
	ErrGoalReached             = fmt.Errorf("%w: fundraising goal already reached", ErrValidation)
	ErrAmountTooSmall          = fmt.Errorf("%w: amount must exceed the platform fee", ErrValidation)
	ErrBadInterval             = fmt.Errorf("%w: unsupported billing interval", ErrValidation)
	ErrNoFollowedOrganizations = fmt.Errorf("%w: no followed organizations", ErrValidation)
	ErrOrganizationLimit       = fmt.Errorf("%w: followed organization limit exceeded", ErrValidation)
	ErrAlreadyFollowed         = fmt.Errorf("%w: organization already followed", ErrValidation)
	ErrNotFollowed             = fmt.Errorf("%w: organization is not followed", ErrValidation)
	ErrSubscriptionExists      = fmt.Errorf("%w: active recurring subscription already exists", ErrValidation)
	ErrNoSubscription          = fmt.Errorf("%w: no recurring subscription configured", ErrValidation)
)
