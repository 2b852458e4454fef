package domain

import (
	"encoding/json"
)

// Payer holds the payer sub-object of the payment details.
type Payer struct {
	Name      *string `json:"name,omitempty"`
	Euid      *string `json:"euid,omitempty"`
	TaxNumber *string `json:"taxNumber,omitempty"`
	Message   *string `json:"message,omitempty"`
}

// PaymentDetails is the detail record persisted per invoice. Field names
// match the provider wire format. Keys not modeled here survive
// round-trips through Extra so a merge never drops data written by an
// older or newer revision.
type PaymentDetails struct {
	QrID           *string `json:"qrId,omitempty"`
	DepixAddress   *string `json:"depixAddress,omitempty"`
	CopyPaste      *string `json:"copyPaste,omitempty"`
	Status         *string `json:"status,omitempty"`
	ValueInCents   *int64  `json:"valueInCents,omitempty"`
	BankTxID       *string `json:"bankTxId,omitempty"`
	BlockchainTxID *string `json:"blockchainTxID,omitempty"`
	Expiration     *string `json:"expiration,omitempty"`
	PixKey         *string `json:"pixKey,omitempty"`
	Payer          *Payer  `json:"payer,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// detailKeys are the JSON keys modeled by PaymentDetails.
var detailKeys = map[string]struct{}{
	"qrId": {}, "depixAddress": {}, "copyPaste": {}, "status": {},
	"valueInCents": {}, "bankTxId": {}, "blockchainTxID": {},
	"expiration": {}, "pixKey": {}, "payer": {},
}

// MarshalJSON emits the modeled fields plus any preserved unknown keys.
func (d PaymentDetails) MarshalJSON() ([]byte, error) {
	type alias PaymentDetails
	known, err := json.Marshal(alias(d))
	if err != nil {
		return nil, err
	}
	if len(d.Extra) == 0 {
		return known, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if _, modeled := detailKeys[k]; modeled {
			continue
		}
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON fills the modeled fields and stashes everything else in Extra.
func (d *PaymentDetails) UnmarshalJSON(data []byte) error {
	type alias PaymentDetails
	var known alias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k := range raw {
		if _, modeled := detailKeys[k]; modeled {
			delete(raw, k)
		}
	}
	if len(raw) == 0 {
		raw = nil
	}

	*d = PaymentDetails(known)
	d.Extra = raw
	return nil
}

// RawStatus returns the stored raw status string, defaulting to "pending"
// when the details carry none.
func (d PaymentDetails) RawStatus() string {
	if d.Status == nil || *d.Status == "" {
		return "pending"
	}
	return *d.Status
}

// DepositNotification is the partial webhook body sent by the provider.
// Every field except QrID is optional; absent fields leave the stored
// details untouched.
type DepositNotification struct {
	QrID            string  `json:"qrId"`
	Status          *string `json:"status,omitempty"`
	ValueInCents    *int64  `json:"valueInCents,omitempty"`
	BankTxID        *string `json:"bankTxId,omitempty"`
	BlockchainTxID  *string `json:"blockchainTxID,omitempty"`
	Expiration      *string `json:"expiration,omitempty"`
	PixKey          *string `json:"pixKey,omitempty"`
	PayerName       *string `json:"payerName,omitempty"`
	PayerEuid       *string `json:"payerEUID,omitempty"`
	PayerTaxNumber  *string `json:"payerTaxNumber,omitempty"`
	CustomerMessage *string `json:"customerMessage,omitempty"`
}

// hasPayerFields reports whether the notification carries any payer data.
func (n DepositNotification) hasPayerFields() bool {
	return n.PayerName != nil || n.PayerEuid != nil ||
		n.PayerTaxNumber != nil || n.CustomerMessage != nil
}

// MergeDetails applies a partial notification over existing details.
// Present fields overwrite, absent fields are preserved, and the payer
// object is merged one level deep only when the notification carries at
// least one payer sub-field. A nil existing is treated as empty.
func MergeDetails(existing *PaymentDetails, n DepositNotification) PaymentDetails {
	var out PaymentDetails
	if existing != nil {
		out = *existing
	}

	if n.BankTxID != nil {
		out.BankTxID = n.BankTxID
	}
	if n.BlockchainTxID != nil {
		out.BlockchainTxID = n.BlockchainTxID
	}
	if n.Status != nil {
		out.Status = n.Status
	}
	if n.ValueInCents != nil {
		out.ValueInCents = n.ValueInCents
	}
	if n.Expiration != nil {
		out.Expiration = n.Expiration
	}
	if n.PixKey != nil {
		out.PixKey = n.PixKey
	}

	if n.hasPayerFields() {
		payer := Payer{}
		if out.Payer != nil {
			payer = *out.Payer
		}
		if n.PayerName != nil {
			payer.Name = n.PayerName
		}
		if n.PayerEuid != nil {
			payer.Euid = n.PayerEuid
		}
		if n.PayerTaxNumber != nil {
			payer.TaxNumber = n.PayerTaxNumber
		}
		if n.CustomerMessage != nil {
			payer.Message = n.CustomerMessage
		}
		out.Payer = &payer
	}

	return out
}
