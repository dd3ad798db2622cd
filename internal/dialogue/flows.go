package dialogue

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ethanbaker/bankchat/internal/actions"
	"github.com/ethanbaker/bankchat/internal/nlu"
)

// Slot kinds drive how a free-text answer is validated
const (
	kindName        = "name"
	kindPhone       = "phone"
	kindEmail       = "email"
	kindOTP         = "otp"
	kindAccountType = "account_type"
	kindRecipient   = "recipient"
	kindAmount      = "amount"
	kindBiller      = "biller"
	kindFromAccount = "from_account_type"
)

// awaitingConfirm marks a flow that has all its slots and is waiting on
// yes/no
const awaitingConfirm = "confirm"

// slotSpec is one slot a flow needs to collect
type slotSpec struct {
	name   string
	kind   string
	prompt string
	// freeText slots accept arbitrary words, so intent remapping is checked
	// before they consume the message
	freeText bool
}

// flow is the ordered slot list for a multi-turn intent
type flow struct {
	intent  string
	slots   []slotSpec
	confirm func(slots map[string]string) string
}

var flows = map[string]*flow{
	nlu.IntentCreateAccount: {
		intent: nlu.IntentCreateAccount,
		slots: []slotSpec{
			{name: actions.SlotName, kind: kindName, prompt: "What's your full name?", freeText: true},
			{name: actions.SlotPhone, kind: kindPhone, prompt: "What's your phone number?"},
			{name: actions.SlotEmail, kind: kindEmail, prompt: "What's your email address? I'll send a verification code there."},
			{name: actions.SlotOTP, kind: kindOTP, prompt: "Please enter the 6-digit code I emailed you."},
			{name: actions.SlotAccountType, kind: kindAccountType, prompt: "Would you like a checking or savings account?"},
		},
		confirm: func(slots map[string]string) string {
			return fmt.Sprintf("I'll open a %s account for %s. Shall I go ahead? (yes/no)",
				slots[actions.SlotAccountType], slots[actions.SlotName])
		},
	},
	nlu.IntentTransfer: {
		intent: nlu.IntentTransfer,
		slots: []slotSpec{
			{name: actions.SlotRecipient, kind: kindRecipient, prompt: "Who would you like to send money to?", freeText: true},
			{name: actions.SlotAmountCents, kind: kindAmount, prompt: "How much would you like to send?"},
			{name: actions.SlotFromAccountType, kind: kindFromAccount, prompt: "From your checking or savings account?"},
		},
		confirm: func(slots map[string]string) string {
			amount, _ := strconv.ParseInt(slots[actions.SlotAmountCents], 10, 64)
			return fmt.Sprintf("You want to send %s to %s from your %s account. Should I go ahead? (yes/no)",
				actions.FormatCents(amount), slots[actions.SlotRecipient], slots[actions.SlotFromAccountType])
		},
	},
	nlu.IntentPayBill: {
		intent: nlu.IntentPayBill,
		slots: []slotSpec{
			{name: actions.SlotBiller, kind: kindBiller, prompt: "Which bill would you like to pay? (electric, gas, water, internet, phone, rent, credit card)"},
			{name: actions.SlotAmountCents, kind: kindAmount, prompt: "How much is the bill?"},
			{name: actions.SlotFromAccountType, kind: kindFromAccount, prompt: "From your checking or savings account?"},
		},
		confirm: func(slots map[string]string) string {
			amount, _ := strconv.ParseInt(slots[actions.SlotAmountCents], 10, 64)
			return fmt.Sprintf("You want to pay %s toward your %s bill from your %s account. Should I go ahead? (yes/no)",
				actions.FormatCents(amount), slots[actions.SlotBiller], slots[actions.SlotFromAccountType])
		},
	},
}

// nextMissingSlot returns the first slot the flow still needs, or nil when
// everything is collected
func (f *flow) nextMissingSlot(slots map[string]string) *slotSpec {
	for i := range f.slots {
		if slots[f.slots[i].name] == "" {
			return &f.slots[i]
		}
	}
	return nil
}

// slotByName finds a slot spec in the flow
func (f *flow) slotByName(name string) *slotSpec {
	for i := range f.slots {
		if f.slots[i].name == name {
			return &f.slots[i]
		}
	}
	return nil
}

var reName = regexp.MustCompile(`^[A-Za-z][A-Za-z .'\-]{1,60}$`)

// fillSlot validates text against the slot kind and returns the canonical
// slot value. ok is false when the text does not answer the slot
func fillSlot(spec *slotSpec, text string) (value string, ok bool) {
	text = strings.TrimSpace(text)

	switch spec.kind {
	case kindAmount:
		cents, ok := nlu.ParseAmount(text)
		if !ok {
			return "", false
		}
		return strconv.FormatInt(cents, 10), true

	case kindAccountType, kindFromAccount:
		return firstNonEmpty(nlu.NormalizeAccountType(text))

	case kindPhone:
		return firstNonEmpty(nlu.ParsePhone(text))

	case kindEmail:
		return firstNonEmpty(nlu.ParseEmail(text))

	case kindOTP:
		return firstNonEmpty(nlu.ParseOTP(text))

	case kindBiller:
		return firstNonEmpty(nlu.ParseBiller(text))

	case kindName, kindRecipient:
		// Prefer an extracted "to <name>" mention, else take the raw text
		if entities := nlu.Extract(text); entities.Recipient != "" {
			text = entities.Recipient
		}
		if !reName.MatchString(text) {
			return "", false
		}
		return text, true
	}

	return "", false
}

func firstNonEmpty(value string, ok bool) (string, bool) {
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// seedSlots pre-fills flow slots from the entities extracted out of the
// message that started the flow
func (f *flow) seedSlots(entities nlu.Entities, slots map[string]string) {
	for _, spec := range f.slots {
		if slots[spec.name] != "" {
			continue
		}

		switch spec.kind {
		case kindAmount:
			if entities.HasAmount {
				slots[spec.name] = strconv.FormatInt(entities.AmountCents, 10)
			}
		case kindAccountType, kindFromAccount:
			if entities.AccountType != "" {
				slots[spec.name] = entities.AccountType
			}
		case kindPhone:
			if entities.Phone != "" {
				slots[spec.name] = entities.Phone
			}
		case kindEmail:
			if entities.Email != "" {
				slots[spec.name] = entities.Email
			}
		case kindRecipient:
			if entities.Recipient != "" {
				slots[spec.name] = entities.Recipient
			}
		case kindBiller:
			if entities.Biller != "" {
				slots[spec.name] = entities.Biller
			}
		}
	}
}
