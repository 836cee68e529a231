package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Money is a monetary amount in minor currency units (paise).
// Amounts stay fixed-point everywhere; conversion to rupee notation
// happens only at formatting boundaries.
type Money int64

const paisePerRupee = 100

var (
	ErrAmountEmpty     = errors.New("amount is empty")
	ErrAmountMalformed = errors.New("amount is not a valid number")
	ErrAmountPrecision = errors.New("amount has more than two decimal places")
	ErrAmountOverflow  = errors.New("amount is too large")
)

// ParseMoney parses a user-entered decimal string ("1500", "1500.50")
// into Money without going through floating point.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrAmountEmpty
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return 0, ErrAmountMalformed
	}
	if intPart == "" {
		intPart = "0"
	}

	var major int64
	for _, r := range intPart {
		if r < '0' || r > '9' {
			return 0, ErrAmountMalformed
		}
		if major > (1<<62)/paisePerRupee/10 {
			return 0, ErrAmountOverflow
		}
		major = major*10 + int64(r-'0')
	}

	var minor int64
	if hasFrac {
		for _, r := range fracPart {
			if r < '0' || r > '9' {
				return 0, ErrAmountMalformed
			}
		}
		if len(fracPart) > 2 {
			return 0, ErrAmountPrecision
		}
		for _, r := range fracPart {
			minor = minor*10 + int64(r-'0')
		}
		if len(fracPart) == 1 {
			minor *= 10
		}
	}

	amount := major*paisePerRupee + minor
	if neg {
		amount = -amount
	}
	return Money(amount), nil
}

// Rupees returns the whole-rupee part of the amount.
func (m Money) Rupees() int64 {
	return int64(m) / paisePerRupee
}

// Decimal renders the amount as a plain decimal string, e.g. "1500.50".
func (m Money) Decimal() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/paisePerRupee, v%paisePerRupee)
}

// FormatINR renders the amount with the rupee symbol and Indian digit
// grouping, e.g. ₹10,00,000.00.
func (m Money) FormatINR() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	major := strconv.FormatInt(v/paisePerRupee, 10)
	if len(major) > 3 {
		head, tail := major[:len(major)-3], major[len(major)-3:]
		groups := []string{tail}
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		major = strings.Join(groups, ",")
	}

	return fmt.Sprintf("%s₹%s.%02d", sign, major, v%paisePerRupee)
}

// MarshalJSON encodes the amount as a JSON number in major units,
// which is what the payments endpoint expects.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings;
// the backend emits either depending on the endpoint.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		*m = 0
		return nil
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) String() string {
	return m.Decimal()
}
