package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int64
		found    bool
	}{
		{"dollar sign", "send $50 to Bob", 5000, true},
		{"dollar sign with cents", "pay $12.75 for gas", 1275, true},
		{"dollars word", "transfer 20 dollars to Alice", 2000, true},
		{"bucks word", "send 5 bucks to Bob", 500, true},
		{"comma decimal", "send $10,50 to Bob", 1050, true},
		{"thousands separator", "send $1,000 to Bob Smith", 100_000, true},
		{"thousands separator in a bill", "pay $2,500 for rent", 250_000, true},
		{"no amount", "check my balance", 0, false},
		{"bare number is not an amount mid-sentence", "my code is 123456", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Extract(tt.text)
			assert.Equal(t, tt.found, e.HasAmount)
			if tt.found {
				assert.Equal(t, tt.expected, e.AmountCents)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		text     string
		expected int64
		found    bool
	}{
		{"$50", 5000, true},
		{"50", 5000, true},
		{"50.25", 5025, true},
		{" $ 99.99 ", 9999, true},
		{"20 dollars", 2000, true},
		{"$1,000", 100_000, true},
		{"$1,000.50", 100_050, true},
		{"$1,250,000", 125_000_000, true},
		{"2,500 dollars", 250_000, true},
		{"25,50", 2550, true},
		{"fifty", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cents, ok := ParseAmount(tt.text)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.expected, cents)
			}
		})
	}
}

func TestExtractAccountType(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"open a savings account", "savings"},
		{"my checking balance", "checking"},
		{"chequing please", "checking"},
		{"current account", "checking"},
		{"saving", "savings"},
		{"no account words here", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			e := Extract(tt.text)
			assert.Equal(t, tt.expected, e.AccountType)
		})
	}
}

func TestExtractEmailAndPhone(t *testing.T) {
	t.Run("email", func(t *testing.T) {
		e := Extract("my email is Jane.Doe+test@Example.COM thanks")
		assert.Equal(t, "jane.doe+test@example.com", e.Email)
	})

	t.Run("phone with separators", func(t *testing.T) {
		e := Extract("call me at 555-010-1234")
		assert.Equal(t, "5550101234", e.Phone)
	})

	t.Run("phone with parens", func(t *testing.T) {
		e := Extract("(555) 010 1234")
		assert.Equal(t, "5550101234", e.Phone)
	})

	t.Run("phone does not double as otp", func(t *testing.T) {
		e := Extract("5550101234")
		assert.Equal(t, "5550101234", e.Phone)
		assert.Empty(t, e.OTPCode)
	})
}

func TestExtractOTP(t *testing.T) {
	e := Extract("the code is 482913")
	assert.Equal(t, "482913", e.OTPCode)

	e = Extract("no code here")
	assert.Empty(t, e.OTPCode)
}

func TestExtractRecipient(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"send $50 to Bob Smith", "Bob Smith"},
		{"transfer money to alice", "alice"},
		{"move $20 to my checking", ""},
		{"check my balance", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			e := Extract(tt.text)
			assert.Equal(t, tt.expected, e.Recipient)
		})
	}
}

func TestExtractBiller(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"pay my gas bill", "gas"},
		{"pay the electricity bill", "electric"},
		{"internet payment", "internet"},
		{"pay rent", "rent"},
		{"send money", ""},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			e := Extract(tt.text)
			assert.Equal(t, tt.expected, e.Biller)
		})
	}
}

func TestParsePhone(t *testing.T) {
	phone, ok := ParsePhone("555 010 1234")
	assert.True(t, ok)
	assert.Equal(t, "5550101234", phone)

	phone, ok = ParsePhone("15550101234")
	assert.True(t, ok)
	assert.Equal(t, "15550101234", phone)

	_, ok = ParsePhone("12345")
	assert.False(t, ok)
}
