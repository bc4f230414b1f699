package checkout

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage is a step of the checkout flow, in the order the buyer walks it.
type Stage int

const (
	StageIdentification Stage = iota + 1
	StageDelivery
	StagePersonalization
	StagePayment
	StageConfirmation
)

// Keys under which staged state lives in the session store.
const (
	KeyOrderID         = "currentOrderId"
	KeyIdentification  = "checkoutIdentification"
	KeyDelivery        = "checkoutDelivery"
	KeyPersonalization = "checkoutPersonalization"
	KeyStep3Complete   = "checkoutStep3Complete"
)

var stageNames = map[Stage]string{
	StageIdentification:  "identification",
	StageDelivery:        "delivery",
	StagePersonalization: "personalization",
	StagePayment:         "payment",
	StageConfirmation:    "confirmation",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

func (s Stage) Valid() bool {
	return s >= StageIdentification && s <= StageConfirmation
}

// Next returns the stage reached after s; Confirmation is terminal.
func (s Stage) Next() Stage {
	if s >= StageConfirmation {
		return StageConfirmation
	}
	return s + 1
}

// Path is the route of the stage: numbered for data-entry stages.
func (s Stage) Path() string {
	if s == StageConfirmation {
		return "/checkout/confirmation"
	}
	return "/checkout/" + strconv.Itoa(int(s))
}

// stagedKey is the storage key holding s's submitted fields ("" for stages
// that keep nothing).
func (s Stage) stagedKey() string {
	switch s {
	case StageIdentification:
		return KeyIdentification
	case StageDelivery:
		return KeyDelivery
	case StagePersonalization:
		return KeyPersonalization
	default:
		return ""
	}
}

// gateKey is the key whose presence proves s was completed.
func (s Stage) gateKey() string {
	if s == StagePersonalization {
		return KeyStep3Complete
	}
	return s.stagedKey()
}

// ParseStage accepts a stage number ("1".."4"), "confirmation", or a stage name.
func ParseStage(raw string) (Stage, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(raw); err == nil {
		s := Stage(n)
		if s >= StageIdentification && s <= StagePayment {
			return s, nil
		}
		return 0, fmt.Errorf("%w: %s", ErrUnknownStage, raw)
	}
	for s, name := range stageNames {
		if name == raw {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownStage, raw)
}
