package validator

import (
	"bufio"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

//go:embed common_passwords.txt
var commonPasswordsFile string

var specialRegex = regexp.MustCompile("[^A-Za-z0-9]")

const (
	pwdMinLen = 8
	pwdMaxSim = .7
)

// PasswordPolicy rejects short, whitespace-bearing, all-numeric, simple,
// common, or user-similar passwords.
type PasswordPolicy struct {
	common []string
}

func NewPasswordPolicy() *PasswordPolicy {
	common := make([]string, 0, 128)
	scanner := bufio.NewScanner(strings.NewReader(commonPasswordsFile))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			common = append(common, strings.ToLower(line))
		}
	}
	sort.Strings(common)
	return &PasswordPolicy{common: common}
}

// Check returns the first violated rule as a message, or "" when pwd passes.
func (p *PasswordPolicy) Check(pwd string, attrs ...string) string {
	var (
		digitCount         int
		hasUpper, hasLower bool
	)

	runes := []rune(pwd)
	if len(runes) < pwdMinLen {
		return fmt.Sprintf("password must contain at least %d characters", pwdMinLen)
	}
	for _, char := range runes {
		if unicode.IsSpace(char) {
			return "password must not contain whitespace"
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if unicode.IsUpper(char) {
			hasUpper = true
		}
		if unicode.IsLower(char) {
			hasLower = true
		}
	}

	if digitCount == len(runes) {
		return "password cannot be entirely numeric"
	}

	if !(hasUpper && hasLower && digitCount > 0 && specialRegex.MatchString(pwd)) {
		return "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	}

	for _, attr := range attrs {
		if similarity(pwd, attr) >= pwdMaxSim {
			return "password is too similar to the user's details"
		}
	}

	lower := strings.ToLower(pwd)
	if idx := sort.SearchStrings(p.common, lower); idx < len(p.common) && p.common[idx] == lower {
		return "password is too common"
	}
	return ""
}

func similarity(pwd, attr string) float64 {
	if attr == "" {
		return 0
	}
	a := strings.Split(strings.ToLower(pwd), "")
	b := strings.Split(strings.ToLower(attr), "")
	return difflib.NewMatcher(a, b).QuickRatio()
}
