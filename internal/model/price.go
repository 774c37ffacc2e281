package model

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxPrice is the largest value a DECIMAL(5,2) column can hold, in cents.
const MaxPrice Price = 99999

// ErrInvalidPrice is returned when a value cannot be parsed as a price.
var ErrInvalidPrice = errors.New("invalid price")

// Price is an amount in cents.  It is encoded in JSON as a string with two
// decimals ("5.00") and decoded from either a string or a number.
type Price int64

// ParsePrice parses "5", "5.5" or "5.50" into cents.  More than two decimal
// places, signs, negative values and values above MaxPrice are rejected.
func ParsePrice(s string) (Price, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	if whole == "" && frac == "" {
		return 0, ErrInvalidPrice
	}
	if strings.ContainsFunc(whole, notDigit) || strings.ContainsFunc(frac, notDigit) {
		return 0, ErrInvalidPrice
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, ErrInvalidPrice
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, ErrInvalidPrice
	}
	if w > int64(MaxPrice/100) {
		return 0, ErrInvalidPrice
	}
	p := Price(w*100 + f)
	if p > MaxPrice {
		return 0, ErrInvalidPrice
	}
	return p, nil
}

func notDigit(r rune) bool { return r < '0' || r > '9' }

func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", int64(p)/100, int64(p)%100)
}

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

func (p *Price) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return ErrInvalidPrice
	}
	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		var err error
		if s, err = strconv.Unquote(s); err != nil {
			return ErrInvalidPrice
		}
	}
	v, err := ParsePrice(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
