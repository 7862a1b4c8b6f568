package model

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of an item.
type Status string

// Item statuses.
const (
	StatusAvailable   Status = "available"
	StatusRequested   Status = "requested"
	StatusReserved    Status = "reserved"
	StatusGiven       Status = "given"
	StatusConfirmed   Status = "confirmed"
	StatusFlaggedDupe Status = "flagged_dupe"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusAvailable,
	StatusRequested,
	StatusReserved,
	StatusGiven,
	StatusConfirmed,
	StatusFlaggedDupe,
}

// Valid reports whether s is one of the six defined statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusFlaggedDupe
}

// HasClaimant reports whether an item in status s must carry a claimant.
func (s Status) HasClaimant() bool {
	switch s {
	case StatusRequested, StatusReserved, StatusGiven, StatusConfirmed:
		return true
	}
	return false
}

// AllowsConfirmation reports whether handover flags may be set in status s.
func (s Status) AllowsConfirmation() bool {
	switch s {
	case StatusReserved, StatusGiven, StatusConfirmed:
		return true
	}
	return false
}

// ItemStatus is the mutable lifecycle record of an item, one row per item.
type ItemStatus struct {
	ItemID              int64      `json:"item_id"`
	Status              Status     `json:"status"`
	StatusSince         time.Time  `json:"status_since"`
	ClaimantID          *int64     `json:"claimant_id,omitempty"`
	ClaimantContact     *string    `json:"claimant_contact,omitempty"`
	ClaimedAt           *time.Time `json:"claimed_at,omitempty"`
	DonorConfirmed      bool       `json:"donor_confirmed"`
	DonorConfirmedAt    *time.Time `json:"donor_confirmed_at,omitempty"`
	ReceiverConfirmed   bool       `json:"receiver_confirmed"`
	ReceiverConfirmedAt *time.Time `json:"receiver_confirmed_at,omitempty"`
}

// Check verifies the record invariants: a known status, a claimant exactly
// when the status requires one, and handover flags only in statuses that
// allow them.
func (st *ItemStatus) Check() error {
	if !st.Status.Valid() {
		return fmt.Errorf("unknown status %q", st.Status)
	}
	if st.Status.HasClaimant() != (st.ClaimantID != nil) {
		return fmt.Errorf("claimant presence does not match status %q", st.Status)
	}
	if (st.DonorConfirmed || st.ReceiverConfirmed) && !st.Status.AllowsConfirmation() {
		return fmt.Errorf("handover confirmed in status %q", st.Status)
	}
	return nil
}

// ClearClaim drops the claimant and both handover confirmations.
func (st *ItemStatus) ClearClaim() {
	st.ClaimantID = nil
	st.ClaimantContact = nil
	st.ClaimedAt = nil
	st.DonorConfirmed = false
	st.DonorConfirmedAt = nil
	st.ReceiverConfirmed = false
	st.ReceiverConfirmedAt = nil
}

// IsClaimant reports whether userID is the stored claimant.
func (st *ItemStatus) IsClaimant(userID int64) bool {
	return st.ClaimantID != nil && *st.ClaimantID == userID
}
