package models

import "errors"

// Sentinel errors surfaced by repositories and services. Handlers map these to
// HTTP status codes with errors.Is.
var (
	ErrCarNotFound    = errors.New("car not found")
	ErrMediaNotFound  = errors.New("media not found")
	ErrRemarkNotFound = errors.New("remark not found")
	ErrDuplicateVIN   = errors.New("car with this VIN already exists")
	ErrInvalidVIN     = errors.New("invalid VIN format")

	ErrInvalidMediaType = errors.New("invalid media type")
)
