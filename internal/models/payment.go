package models

import (
	"fmt"
	"time"
)

// PaymentStatus is the closed set of payment states.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentComplete   PaymentStatus = "complete"
	PaymentFailed     PaymentStatus = "failed"
	PaymentCancelled  PaymentStatus = "cancelled"
)

var paymentTransitions = transitionTable[PaymentStatus]{
	PaymentPending:    {PaymentProcessing, PaymentComplete, PaymentFailed, PaymentCancelled},
	PaymentProcessing: {PaymentComplete, PaymentFailed},
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(s); st {
	case PaymentPending, PaymentProcessing, PaymentComplete, PaymentFailed, PaymentCancelled:
		return st, nil
	}
	return "", fmt.Errorf("invalid payment status: %q", s)
}

// CanTransition checks the status matrix only. Settling straight from pending
// additionally depends on the method, see PaymentMethod.SkipsProcessing.
func (s PaymentStatus) CanTransition(to PaymentStatus) bool {
	return paymentTransitions.allows(s, to)
}

func (s PaymentStatus) IsTerminal() bool {
	return len(paymentTransitions[s]) == 0
}

// PaymentType is what the payment is for.
type PaymentType string

const (
	PaymentRent      PaymentType = "rent"
	PaymentDeposit   PaymentType = "deposit"
	PaymentCharges   PaymentType = "charges"
	PaymentAgencyFee PaymentType = "agency_fee"
)

func ParsePaymentType(s string) (PaymentType, error) {
	switch pt := PaymentType(s); pt {
	case PaymentRent, PaymentDeposit, PaymentCharges, PaymentAgencyFee:
		return pt, nil
	}
	return "", fmt.Errorf("invalid payment type: %q", s)
}

// PaymentMethod is how the payer pays.
type PaymentMethod string

const (
	MethodMobileMoney  PaymentMethod = "mobile_money"
	MethodBankCard     PaymentMethod = "bank_card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch pm := PaymentMethod(s); pm {
	case MethodMobileMoney, MethodBankCard, MethodBankTransfer, MethodCash:
		return pm, nil
	}
	return "", fmt.Errorf("invalid payment method: %q", s)
}

// SkipsProcessing reports whether a payment with this method may settle
// directly from pending on external confirmation.
func (m PaymentMethod) SkipsProcessing() bool {
	return m != MethodMobileMoney
}

// MobileMoneyProvider is a supported mobile money operator.
type MobileMoneyProvider string

const (
	ProviderOrangeMoney MobileMoneyProvider = "orange_money"
	ProviderMTNMoMo     MobileMoneyProvider = "mtn_momo"
	ProviderMoovMoney   MobileMoneyProvider = "moov_money"
	ProviderWave        MobileMoneyProvider = "wave"
)

func ParseMobileMoneyProvider(s string) (MobileMoneyProvider, error) {
	switch p := MobileMoneyProvider(s); p {
	case ProviderOrangeMoney, ProviderMTNMoMo, ProviderMoovMoney, ProviderWave:
		return p, nil
	}
	return "", fmt.Errorf("invalid mobile money provider: %q", s)
}

// Payment is a transfer between the parties of an active contract.
type Payment struct {
	Base                `bson:",inline"`
	Timestamps          `bson:",inline"`
	PayerID             string              `bson:"payer_id" json:"payer_id"`
	ReceiverID          string              `bson:"receiver_id" json:"receiver_id"`
	PropertyID          string              `bson:"property_id" json:"property_id"`
	ContractID          string              `bson:"contract_id" json:"contract_id"`
	Amount              int64               `bson:"amount" json:"amount"`
	AmountOverridden    bool                `bson:"amount_overridden,omitempty" json:"amount_overridden,omitempty"`
	PaymentType         PaymentType         `bson:"payment_type" json:"payment_type"`
	PaymentMethod       PaymentMethod       `bson:"payment_method" json:"payment_method"`
	MobileMoneyProvider MobileMoneyProvider `bson:"mobile_money_provider,omitempty" json:"mobile_money_provider,omitempty"`
	MobileMoneyNumber   string              `bson:"mobile_money_number,omitempty" json:"mobile_money_number,omitempty"`
	ProviderReference   string              `bson:"provider_reference,omitempty" json:"provider_reference,omitempty"`
	Status              PaymentStatus       `bson:"status" json:"status"`
	SettledAt           *time.Time          `bson:"settled_at,omitempty" json:"settled_at,omitempty"`
}
