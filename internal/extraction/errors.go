package extraction

import "errors"

var (
	// ErrInsufficientQuality marks output that fell below a strategy's
	// threshold. The cascade treats it exactly like a failure.
	ErrInsufficientQuality = errors.New("insufficient extraction quality")
	// ErrDecode is returned by decodeText callers when bytes are not text.
	ErrDecode = errors.New("decode text")
	// ErrNoProviders means a vision strategy had nobody to ask.
	ErrNoProviders = errors.New("no vision provider available")
)
