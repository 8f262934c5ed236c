package models

import (
	"errors"
	"strings"
)

var ErrInvalidISBN = errors.New("invalid ISBN")

// NormalizeISBN strips hyphens and spaces and upper-cases an ISBN-10 check digit.
func NormalizeISBN(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToUpper(s)
}

// ValidISBN reports whether s, once normalized, is an ISBN-10 or ISBN-13
// with a correct check digit.
func ValidISBN(s string) bool {
	s = NormalizeISBN(s)
	switch len(s) {
	case 10:
		return validISBN10(s)
	case 13:
		return validISBN13(s)
	default:
		return false
	}
}

func validISBN10(s string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		c := s[i]
		var d int
		switch {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c == 'X' && i == 9:
			d = 10
		default:
			return false
		}
		sum += d * (10 - i)
	}
	return sum%11 == 0
}

func validISBN13(s string) bool {
	if !allDigits(s) {
		return false
	}
	return isbn13CheckDigit(s[:12]) == s[12]
}

func isbn13CheckDigit(first12 string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(first12[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// ISBN13 returns the 13 digit form of a valid ISBN.
func ISBN13(s string) (string, error) {
	s = NormalizeISBN(s)
	if !ValidISBN(s) {
		return "", ErrInvalidISBN
	}
	if len(s) == 13 {
		return s, nil
	}

	first12 := "978" + s[:9]
	return first12 + string(isbn13CheckDigit(first12)), nil
}
