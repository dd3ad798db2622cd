package nlu

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Entities holds everything the extractor pulled out of one message
type Entities struct {
	AmountCents int64  `json:"amount_cents"`
	HasAmount   bool   `json:"has_amount"`
	AccountType string `json:"account_type,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	OTPCode     string `json:"otp_code,omitempty"`
	Recipient   string `json:"recipient,omitempty"`
	Biller      string `json:"biller,omitempty"`
}

var (
	reAmountSigil = regexp.MustCompile(`\$\s*((?:[0-9]{1,3}(?:,[0-9]{3})+|[0-9]+)(?:[.,][0-9]{1,2})?)`)
	reAmountWord  = regexp.MustCompile(`(?i)\b((?:[0-9]{1,3}(?:,[0-9]{3})+|[0-9]+)(?:[.,][0-9]{1,2})?)\s*(?:dollars?|bucks?|usd)\b`)
	reBareAmount  = regexp.MustCompile(`^\s*\$?\s*((?:[0-9]{1,3}(?:,[0-9]{3})+|[0-9]+)(?:[.,][0-9]{1,2})?)\s*$`)
	// comma groups of three are thousands separators, not decimal marks
	reAmountGrouped = regexp.MustCompile(`^[0-9]{1,3}(?:,[0-9]{3})+(?:\.[0-9]{1,2})?$`)
	reEmail       = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	rePhone       = regexp.MustCompile(`\b\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`)
	reOTP         = regexp.MustCompile(`\b\d{6}\b`)
	reRecipient   = regexp.MustCompile(`(?i)\b(?:to|for)\s+([A-Za-z]+(?:\s+[A-Za-z]+)?)`)
	reDigits      = regexp.MustCompile(`\D`)
)

// accountTypeSynonyms maps free-text account words to ledger account types
var accountTypeSynonyms = map[string]string{
	"checking": "checking",
	"chequing": "checking",
	"current":  "checking",
	"savings":  "savings",
	"saving":   "savings",
}

// billers the demo bank knows how to pay
var knownBillers = []string{
	"electric", "electricity", "gas", "water", "internet", "phone", "rent", "credit card",
}

// billerSynonyms collapses variants to a canonical biller name
var billerSynonyms = map[string]string{
	"electricity": "electric",
}

// stopwords that must not be mistaken for a recipient name
var recipientStopwords = map[string]bool{
	"my": true, "the": true, "a": true, "an": true, "me": true, "pay": true,
	"checking": true, "savings": true, "account": true, "bill": true,
}

// Extract parses raw text into entities: amounts, account types, phone
// numbers, emails, OTP codes, recipient names, and billers
func Extract(text string) Entities {
	var e Entities

	if cents, ok := findAmount(text); ok {
		e.AmountCents = cents
		e.HasAmount = true
	}
	if t, ok := findAccountType(text); ok {
		e.AccountType = t
	}
	if email := reEmail.FindString(text); email != "" {
		e.Email = strings.ToLower(email)
	}
	if phone := rePhone.FindString(text); phone != "" {
		e.Phone = reDigits.ReplaceAllString(phone, "")
	}
	if e.Phone == "" {
		// A bare 6-digit number with no phone around it reads as an OTP code
		if otp := reOTP.FindString(text); otp != "" {
			e.OTPCode = otp
		}
	}
	if name, ok := findRecipient(text); ok {
		e.Recipient = name
	}
	if biller, ok := findBiller(text); ok {
		e.Biller = biller
	}

	return e
}

// ParseAmount reads a money amount out of text and returns it in cents.
// Accepts "$50", "50.25", "20 dollars"; a lone number counts only when the
// whole text is the number, which is how slot answers arrive
func ParseAmount(text string) (int64, bool) {
	if cents, ok := findAmount(text); ok {
		return cents, true
	}

	if m := reBareAmount.FindStringSubmatch(text); m != nil {
		return toCents(m[1])
	}

	return 0, false
}

// NormalizeAccountType maps free text to a canonical account type
func NormalizeAccountType(text string) (string, bool) {
	return findAccountType(text)
}

// ParsePhone reads a 10-11 digit phone number out of text
func ParsePhone(text string) (string, bool) {
	phone := rePhone.FindString(text)
	if phone == "" {
		// Slot answers may arrive as a plain digit run
		digits := reDigits.ReplaceAllString(strings.TrimSpace(text), "")
		if digits == strings.TrimSpace(strings.ReplaceAll(text, " ", "")) && (len(digits) == 10 || len(digits) == 11) {
			return digits, true
		}
		return "", false
	}
	return reDigits.ReplaceAllString(phone, ""), true
}

// ParseEmail reads an email address out of text
func ParseEmail(text string) (string, bool) {
	email := reEmail.FindString(text)
	if email == "" {
		return "", false
	}
	return strings.ToLower(email), true
}

// ParseOTP reads a 6-digit verification code out of text
func ParseOTP(text string) (string, bool) {
	code := reOTP.FindString(text)
	return code, code != ""
}

// ParseBiller maps free text to a known biller
func ParseBiller(text string) (string, bool) {
	return findBiller(text)
}

func findAmount(text string) (int64, bool) {
	if m := reAmountSigil.FindStringSubmatch(text); m != nil {
		return toCents(m[1])
	}
	if m := reAmountWord.FindStringSubmatch(text); m != nil {
		return toCents(m[1])
	}
	return 0, false
}

func toCents(s string) (int64, bool) {
	if reAmountGrouped.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	} else {
		// lone comma before one or two digits reads as a decimal mark
		s = strings.ReplaceAll(s, ",", ".")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(f * 100)), true
}

func findAccountType(text string) (string, bool) {
	for _, word := range tokenize(text) {
		if t, ok := accountTypeSynonyms[word]; ok {
			return t, true
		}
	}
	return "", false
}

func findBiller(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, biller := range knownBillers {
		if strings.Contains(lower, biller) {
			if canonical, ok := billerSynonyms[biller]; ok {
				return canonical, true
			}
			return biller, true
		}
	}
	return "", false
}

func findRecipient(text string) (string, bool) {
	m := reRecipient.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	// Trim trailing stopwords so "to my checking" does not read as a name
	words := strings.Fields(m[1])
	var kept []string
	for _, w := range words {
		if recipientStopwords[strings.ToLower(w)] {
			break
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return "", false
	}

	return strings.Join(kept, " "), true
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}
