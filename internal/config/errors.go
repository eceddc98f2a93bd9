package config

import "errors"

// ErrMissingQuoteAsset indicates that the required TSWAP_QUOTE_ASSET variable
// is not set.
var ErrMissingQuoteAsset = errors.New("missing TSWAP_QUOTE_ASSET environment variable")

// ErrInvalidQuoteAsset indicates that the configured quote asset is not a
// valid hex address.
var ErrInvalidQuoteAsset = errors.New("TSWAP_QUOTE_ASSET is not a valid hex address")
