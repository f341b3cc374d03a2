package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ        = regexp.MustCompile(`^[A-Za-z0-9 _'\\-]{1,50}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9 _.-]{2,30}$`)
	reExpiry   = regexp.MustCompile(`^(0[1-9]|1[0-2])/?([0-9]{2})$`)
	reCVV      = regexp.MustCompile(`^[0-9]{3,4}$`)
	reImage    = regexp.MustCompile(`^[A-Za-z0-9_./-]{0,200}$`)
)

const MaxQty = 50

func Email(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 0 || len(s) > 50 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// Qty parses an add-to-cart quantity, defaulting to 1 and clamping abuse.
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > MaxQty {
		return MaxQty
	}
	return n
}

// NewQty parses a cart update quantity; zero (or garbage) means remove.
func NewQty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	if n > MaxQty {
		return MaxQty
	}
	return n
}

// ID validates a positive numeric row id from a route param.
func ID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return id, err == nil && id > 0
}

func ProductID(s string) (int64, bool) { return ID(s) }

// Username validates a displayable account name.
func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUsername.MatchString(s)
}

// ProductName validates an admin-entered product name.
func ProductName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && len(s) <= 100
}

// Price parses a non-negative money amount rounded to cents.
func Price(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d.Round(2), true
}

// Stock parses a non-negative stock count.
func Stock(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil && n >= 0
}

// ImageRef validates a relative image reference such as "apple.png".
func ImageRef(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "..") {
		return "", false
	}
	return s, reImage.MatchString(s)
}

// Rating clamps feedback ratings to 1..5, defaulting to 5.
func Rating(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 || n > 5 {
		return 5
	}
	return n
}

// Password enforces the registration policy: 8-20 characters mixing letter
// case, digits and symbols.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 20 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

// CardDigits strips separators and checks the 12-19 digit length window.
func CardDigits(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-':
		default:
			return "", false
		}
	}
	d := b.String()
	return d, len(d) >= 12 && len(d) <= 19
}

func CardExpiry(s string) bool { return reExpiry.MatchString(strings.TrimSpace(s)) }

func CVV(s string) bool { return reCVV.MatchString(strings.TrimSpace(s)) }

// Text trims free-form input and caps it at max bytes.
func Text(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) > max {
		s = s[:max]
	}
	return s
}
