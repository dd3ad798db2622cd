package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()

	classifier, err := NewClassifier(0.4)
	require.NoError(t, err)
	return classifier
}

func TestClassify(t *testing.T) {
	classifier := newTestClassifier(t)

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"greeting", "hello there", IntentGreeting},
		{"greeting phrase", "good morning!", IntentGreeting},
		{"balance", "what's my balance?", IntentCheckBalance},
		{"balance phrase", "how much money do I have", IntentCheckBalance},
		{"transfer", "I want to transfer money to Bob", IntentTransfer},
		{"transfer send", "send $50 to Alice", IntentTransfer},
		{"create account", "I'd like to open an account", IntentCreateAccount},
		{"pay bill", "pay my electric bill", IntentPayBill},
		{"history", "show me my transaction history", IntentTransactionHistory},
		{"cancel", "cancel that", IntentCancel},
		{"cancel phrase", "never mind", IntentCancel},
		{"help", "help", IntentHelp},
		{"gibberish", "xyzzy plugh", IntentUnknown},
		{"empty", "", IntentUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(tt.text)
			assert.Equal(t, tt.expected, result.Intent, "text: %q", tt.text)
		})
	}
}

func TestClassifyConfidence(t *testing.T) {
	classifier := newTestClassifier(t)

	t.Run("confidence in range", func(t *testing.T) {
		result := classifier.Classify("check my balance please")
		assert.Equal(t, IntentCheckBalance, result.Intent)
		assert.Greater(t, result.Confidence, 0.4)
		assert.LessOrEqual(t, result.Confidence, 1.0)
	})

	t.Run("phrase hits outrank bare keywords", func(t *testing.T) {
		phrase := classifier.Classify("check my balance")
		bare := classifier.Classify("balance")
		assert.Greater(t, phrase.Confidence, bare.Confidence)
	})

	t.Run("low-signal word stays below threshold", func(t *testing.T) {
		// "gas" alone scores against pay_bill but not enough to clear
		// the threshold, which is what keeps slot answers from being
		// remapped to unrelated intents
		result := classifier.Classify("gas")
		assert.Equal(t, IntentUnknown, result.Intent)
	})
}

func TestClassifierThreshold(t *testing.T) {
	strict, err := NewClassifier(0.99)
	require.NoError(t, err)

	result := strict.Classify("check my balance")
	assert.Equal(t, IntentUnknown, result.Intent)
}

func TestClassifierIntents(t *testing.T) {
	classifier := newTestClassifier(t)

	names := classifier.Intents()
	assert.Contains(t, names, IntentTransfer)
	assert.Contains(t, names, IntentCreateAccount)
	assert.Contains(t, names, IntentCancel)
}
