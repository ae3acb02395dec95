package valueobject

import (
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// MaxDestinationLength bounds the stored destination URL.
const MaxDestinationLength = 2048

// Destination is the URL a short code redirects to.
type Destination struct {
	value  string
	parsed *url.URL
}

// NewDestination validates rawURL as an absolute http(s) URL.
func NewDestination(rawURL string) (Destination, error) {
	if err := validation.Validate(rawURL,
		validation.Required.Error("URL is required"),
		validation.Length(1, MaxDestinationLength),
		is.URL.Error("invalid URL format"),
	); err != nil {
		return Destination{}, ErrInvalidURL
	}

	parsed, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return Destination{}, ErrInvalidURL
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Destination{}, ErrInvalidURL
	}

	if parsed.Host == "" {
		return Destination{}, ErrInvalidURL
	}

	return Destination{
		value:  rawURL,
		parsed: parsed,
	}, nil
}

// String returns the string representation of the Destination.
func (d Destination) String() string {
	return d.value
}

// Host returns the host portion of the URL.
func (d Destination) Host() string {
	if d.parsed == nil {
		return ""
	}
	return d.parsed.Host
}

// IsEmpty returns true if the Destination is empty.
func (d Destination) IsEmpty() bool {
	return d.value == ""
}
