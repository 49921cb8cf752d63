package password

import (
	"bufio"
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

//go:embed common_passwords.txt
var commonPasswordsRaw string

var nonWord = regexp.MustCompile(`\W+`)

// Attribute is a user-supplied value a password must not resemble,
// for example the email address or display name.
type Attribute struct {
	Label string
	Value string
}

// Policy checks password strength. The zero value rejects nothing; use
// [DefaultPolicy] for the standard rule set.
type Policy struct {
	MinLength      int
	MaxSimilarity  float64
	RejectCommon   bool
	RejectNumeric  bool
	commonPassword map[string]struct{}
}

// DefaultPolicy returns the standard rule set: minimum length 8, similarity
// to user attributes below 0.7, not a common password and not all digits.
func DefaultPolicy() Policy {
	return Policy{
		MinLength:     8,
		MaxSimilarity: 0.7,
		RejectCommon:  true,
		RejectNumeric: true,
	}
}

// Validate returns one message per violated rule, in a stable order.
// A nil result means the password is acceptable.
func (p Policy) Validate(password string, attrs ...Attribute) []string {
	var problems []string

	if p.MaxSimilarity > 0 {
		if label, ok := p.similarTo(password, attrs); ok {
			problems = append(problems, fmt.Sprintf("The password is too similar to the %s.", label))
		}
	}
	if p.MinLength > 0 && utf8.RuneCountInString(password) < p.MinLength {
		problems = append(problems, fmt.Sprintf(
			"This password is too short. It must contain at least %d characters.", p.MinLength,
		))
	}
	if p.RejectCommon && p.isCommon(password) {
		problems = append(problems, "This password is too common.")
	}
	if p.RejectNumeric && isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}

	return problems
}

func (p Policy) similarTo(password string, attrs []Attribute) (string, bool) {
	lowered := strings.ToLower(password)
	for _, attr := range attrs {
		value := strings.ToLower(strings.TrimSpace(attr.Value))
		if value == "" || exceedsLengthRatio(lowered, p.MaxSimilarity, value) {
			continue
		}
		parts := append(nonWord.Split(value, -1), value)
		for _, part := range parts {
			if part == "" || exceedsLengthRatio(lowered, p.MaxSimilarity, part) {
				continue
			}
			if quickRatio(lowered, part) >= p.MaxSimilarity {
				return attr.Label, true
			}
		}
	}
	return "", false
}

// quickRatio is an upper bound on sequence similarity: twice the size of the
// character multiset intersection over the combined length.
func quickRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}

	avail := make(map[rune]int, len(rb))
	for _, r := range rb {
		avail[r]++
	}
	matches := 0
	for _, r := range ra {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}

	return 2 * float64(matches) / float64(total)
}

// Very long passwords cannot be meaningfully similar to short attributes.
func exceedsLengthRatio(password string, maxSimilarity float64, value string) bool {
	pwdLen := utf8.RuneCountInString(password)
	valueLen := utf8.RuneCountInString(value)
	bound := maxSimilarity / 2 * float64(pwdLen)
	return pwdLen >= 10*valueLen && float64(valueLen) < bound
}

func (p Policy) isCommon(password string) bool {
	set := p.commonPassword
	if set == nil {
		set = defaultCommonPasswords
	}
	_, ok := set[strings.ToLower(strings.TrimSpace(password))]
	return ok
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var defaultCommonPasswords = loadCommonPasswords(commonPasswordsRaw)

func loadCommonPasswords(raw string) map[string]struct{} {
	set := make(map[string]struct{}, 256)
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[strings.ToLower(line)] = struct{}{}
	}
	return set
}
