package validation

import (
	"net/url"
	"strings"

	apperrors "github.com/anime-shed/gridbot-inspector-go/internal/errors"
)

const blobHostSuffix = ".blob.core.windows.net"

// URLValidator checks remote screenshot references before anything is fetched
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator creates a new URL validator with default settings
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateImageURL validates a screenshot URL fetched over http(s)
func (v *URLValidator) ValidateImageURL(imageURL string) error {
	parsedURL, err := parse(imageURL)
	if err != nil {
		return err
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	return nil
}

// ValidateBlobURL accepts https://<account>.blob.core.windows.net/<container>/...
// Host restrictions do not apply; the account is fixed by the credentials.
func (v *URLValidator) ValidateBlobURL(blobURL string) error {
	parsedURL, err := parse(blobURL)
	if err != nil {
		return err
	}

	if parsedURL.Scheme != "https" {
		return apperrors.NewValidationError("blob URL must use https", nil)
	}

	if !strings.HasSuffix(strings.ToLower(parsedURL.Hostname()), blobHostSuffix) {
		return apperrors.NewValidationError("URL is not an Azure blob endpoint", nil)
	}

	if strings.Trim(parsedURL.Path, "/") == "" {
		return apperrors.NewValidationError("blob URL must name a container", nil)
	}

	return nil
}

func parse(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid URL format", err)
	}
	return parsedURL, nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

// isHostAllowed matches case-insensitively, ignoring any port.
// Returns true if no host restrictions are set.
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
