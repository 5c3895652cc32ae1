package check

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/bitinho/mailscout/internal/parse"
)

// Syntax validates the format of a parsed address according to
// RFC 5321/5322, with RFC 6531 (SMTPUTF8) local parts and IDNA2008
// domains. It returns nil for a well-formed address.
func Syntax(email parse.Email) error {
	if email.Raw == "" {
		return errors.New("empty email address")
	}
	if !email.Valid {
		return errors.New("invalid email syntax")
	}

	// RFC 5321 length limits.
	if len(email.Raw) > 254 {
		return errors.New("email address exceeds 254 characters")
	}
	if len(email.Local) > 64 {
		return errors.New("local part exceeds 64 characters")
	}

	if err := syntaxLocal(email.Local); err != nil {
		return err
	}
	return syntaxDomain(email.DomainUnicode)
}

func syntaxLocal(local string) error {
	if local == "" {
		return errors.New("local part is empty")
	}

	// In quoted form all printable characters are allowed.
	if strings.HasPrefix(local, `"`) && strings.HasSuffix(local, `"`) && len(local) >= 2 {
		return nil
	}

	// RFC 5321 ASCII special characters besides alphanumerics.
	const asciiSpecial = "!#$%&'*+/=?^_`{|}~-."

	for _, ch := range local {
		if ch > 127 {
			// RFC 6531: non-ASCII is allowed, control characters are not.
			if unicode.IsControl(ch) {
				return errors.New("local part contains control character")
			}
			continue
		}
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			continue
		}
		if !strings.ContainsRune(asciiSpecial, ch) {
			return fmt.Errorf("local part contains invalid character %q", ch)
		}
	}

	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return errors.New("local part cannot start or end with a dot")
	}
	if strings.Contains(local, "..") {
		return errors.New("local part cannot contain consecutive dots")
	}
	return nil
}

func syntaxDomain(domain string) error {
	if domain == "" {
		return errors.New("domain is empty")
	}

	// IP literal: [127.0.0.1] - accept without deeper validation.
	if strings.HasPrefix(domain, "[") && strings.HasSuffix(domain, "]") {
		return nil
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return errors.New("domain must have at least two labels")
	}

	for _, label := range labels {
		if label == "" {
			return errors.New("domain contains empty label")
		}
		if len(label) > 63 {
			return errors.New("domain label exceeds 63 characters")
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return errors.New("domain label cannot start or end with a hyphen")
		}
		for _, ch := range label {
			if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '-' {
				return fmt.Errorf("domain label contains invalid character %q", ch)
			}
		}
	}

	tld := labels[len(labels)-1]
	allDigits := true
	for _, ch := range tld {
		if !unicode.IsDigit(ch) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return errors.New("TLD cannot be all digits")
	}
	return nil
}
