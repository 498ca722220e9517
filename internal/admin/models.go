package admin

import "github.com/google/uuid"

// Admin is a reviewer account. Its bank details are shown to the payer on the
// wizard's payment step; the secret hash backs the login endpoint.
type Admin struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	BankCardNumber string    `json:"bank_card_number"`
	BankCardOwner  string    `json:"bank_card_owner"`
	BankName       string    `json:"bank_name"`
	PhoneNumber    string    `json:"phone_number"`
	TelegramChatID int64     `json:"-"` // notification target, never serialized out
	SecretHash     string    `json:"-"`
}

// PaymentDetails is the payer-facing slice of an admin record.
type PaymentDetails struct {
	BankCardNumber string `json:"bank_card_number"`
	BankCardOwner  string `json:"bank_card_owner"`
	BankName       string `json:"bank_name"`
	PhoneNumber    string `json:"phone_number"`
}

// PaymentDetails projects the fields the wizard shows on the payment step.
func (a Admin) PaymentDetails() PaymentDetails {
	return PaymentDetails{
		BankCardNumber: a.BankCardNumber,
		BankCardOwner:  a.BankCardOwner,
		BankName:       a.BankName,
		PhoneNumber:    a.PhoneNumber,
	}
}
