package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	defaultMinPasswordLength = 8
	maxPasswordSimilarity    = 0.7

	// bcrypt ignores input beyond 72 bytes.
	maxPasswordBytes = 72
)

var attributeSeparator = regexp.MustCompile(`\W+`)

// commonPasswords is a short list of passwords that show up at the top of
// every leaked-credential dump.
var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		123456 123456789 12345678 1234567890 12345 1234567 password password1
		password123 passw0rd qwerty qwerty123 qwertyuiop abc123 111111 000000
		123123 654321 666666 121212 iloveyou admin admin123 administrator
		welcome welcome1 letmein monkey dragon football baseball sunshine
		princess shadow master superman trustno1 starwars michael jennifer
		computer internet whatever freedom secret changeme login asdfghjk
		asdfgh zxcvbnm 1q2w3e4r 1qaz2wsx qazwsx abcdefg abcd1234 aa123456
		myspace1 charlie donald hello123 hunter2 ninja mustang access
	`) {
		commonPasswords[p] = struct{}{}
	}
}

// PasswordPolicy checks candidate passwords. Violations are returned as
// human readable messages; an empty result means the password is acceptable.
type PasswordPolicy struct {
	MinLength int
}

// DefaultPasswordPolicy requires eight characters.
var DefaultPasswordPolicy = PasswordPolicy{MinLength: defaultMinPasswordLength}

// Check validates password on its own and against the user's attributes,
// given as name/value pairs such as "email", "ana@example.com".
func (p PasswordPolicy) Check(password string, attrs ...string) []string {
	var problems []string

	min := p.MinLength
	if min <= 0 {
		min = defaultMinPasswordLength
	}
	if len([]rune(password)) < min {
		problems = append(problems, fmt.Sprintf("This password is too short. It must contain at least %d characters.", min))
	}
	if len(password) > maxPasswordBytes {
		problems = append(problems, fmt.Sprintf("This password is too long. It must contain at most %d bytes.", maxPasswordBytes))
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		problems = append(problems, "This password is entirely numeric.")
	}

	for i := 0; i+1 < len(attrs); i += 2 {
		if similar(password, attrs[i+1]) {
			problems = append(problems, fmt.Sprintf("The password is too similar to the %s.", attrs[i]))
			break
		}
	}
	return problems
}

// similar compares password with value and with each word of value.
func similar(password, value string) bool {
	password = strings.ToLower(password)
	value = strings.ToLower(value)
	if password == "" || value == "" {
		return false
	}
	parts := append([]string{value}, attributeSeparator.Split(value, -1)...)
	for _, part := range parts {
		if part != "" && quickRatio(password, part) >= maxPasswordSimilarity {
			return true
		}
	}
	return false
}

// quickRatio is an upper bound on the similarity of a and b: twice the size of
// their character multiset intersection over their combined length.
func quickRatio(a, b string) float64 {
	counts := make(map[rune]int)
	for _, r := range b {
		counts[r]++
	}
	matches := 0
	for _, r := range a {
		if counts[r] > 0 {
			counts[r]--
			matches++
		}
	}
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 1
	}
	return 2 * float64(matches) / float64(total)
}
