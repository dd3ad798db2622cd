package nlu

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Intent labels returned by the classifier
const (
	IntentGreeting           = "greeting"
	IntentHelp               = "help"
	IntentCreateAccount      = "create_account"
	IntentCheckBalance       = "check_balance"
	IntentTransfer           = "transfer"
	IntentPayBill            = "pay_bill"
	IntentTransactionHistory = "transaction_history"
	IntentCancel             = "cancel"
	IntentUnknown            = "unknown"
)

//go:embed intents.yaml
var intentDefinitions []byte

// intentDef is one intent entry in the embedded YAML
type intentDef struct {
	Name     string         `yaml:"name"`
	Keywords map[string]int `yaml:"keywords"`
	Phrases  []string       `yaml:"phrases"`
}

type intentFile struct {
	Intents []intentDef `yaml:"intents"`
}

// Classification is an intent label with its confidence score
type Classification struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Classifier scores raw text against the embedded intent definitions and
// returns the best label with a confidence in [0, 1]. Text below the
// threshold classifies as unknown
type Classifier struct {
	intents   []intentDef
	threshold float64
}

// NewClassifier loads the embedded intent definitions
func NewClassifier(threshold float64) (*Classifier, error) {
	var file intentFile
	if err := yaml.Unmarshal(intentDefinitions, &file); err != nil {
		return nil, fmt.Errorf("failed to parse intent definitions: %w", err)
	}
	if len(file.Intents) == 0 {
		return nil, fmt.Errorf("intent definitions are empty")
	}

	return &Classifier{intents: file.Intents, threshold: threshold}, nil
}

// Classify scores text against every intent and returns the winner
func (c *Classifier) Classify(text string) Classification {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return Classification{Intent: IntentUnknown}
	}

	tokenSet := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		tokenSet[tok] = true
	}
	lower := strings.ToLower(text)

	best := Classification{Intent: IntentUnknown}
	for _, intent := range c.intents {
		score := 0
		for keyword, weight := range intent.Keywords {
			if tokenSet[keyword] {
				score += weight
			}
		}
		for _, phrase := range intent.Phrases {
			if strings.Contains(lower, phrase) {
				score += 8
			}
		}
		if score == 0 {
			continue
		}

		confidence := float64(score) / (float64(score) + 4.0)
		if confidence > best.Confidence {
			best = Classification{Intent: intent.Name, Confidence: confidence}
		}
	}

	if best.Confidence < c.threshold {
		return Classification{Intent: IntentUnknown, Confidence: best.Confidence}
	}

	return best
}

// Intents returns the known intent names sorted alphabetically
func (c *Classifier) Intents() []string {
	names := make([]string, 0, len(c.intents))
	for _, intent := range c.intents {
		names = append(names, intent.Name)
	}
	sort.Strings(names)
	return names
}
