// Package validate checks inbound initiation requests against the domain
// rules. All rules are evaluated so a caller sees every violation at once,
// not just the first.
package validate

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/punchamoorthee/payinit/internal/domain"
)

// AllowedCurrencies is the fixed settlement currency allow-list.
var AllowedCurrencies = map[string]bool{
	"ETB": true,
	"USD": true,
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidationError carries every rule the request violated.
type ValidationError struct {
	Reasons []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Reasons, "; ")
}

// Request validates req and returns the parsed amount on success. The
// returned error, if any, is always a *ValidationError.
func Request(req domain.InitiateRequest) (decimal.Decimal, error) {
	var reasons []string
	var amount decimal.Decimal

	if !emailRe.MatchString(req.Email) {
		reasons = append(reasons, "invalid or missing email")
	}

	parsed, err := decimal.NewFromString(req.Amount.String())
	if err != nil || !parsed.IsPositive() {
		reasons = append(reasons, "invalid or missing amount")
	} else {
		amount = parsed
	}

	if req.Currency == "" || !AllowedCurrencies[req.Currency] {
		reasons = append(reasons, "invalid or missing currency")
	}

	if !isAbsoluteURL(req.CallbackURL) {
		reasons = append(reasons, "invalid or missing callback_url")
	}

	if req.ReturnURL != "" && !isAbsoluteURL(req.ReturnURL) {
		reasons = append(reasons, "invalid return_url")
	}

	if reasons != nil {
		return decimal.Decimal{}, &ValidationError{Reasons: reasons}
	}
	return amount, nil
}

func isAbsoluteURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && u.Host != ""
}
