package models

import "strings"

// ClientInfo is the snapshot of a client copied into quotations and invoices
// at creation time. It is never refreshed from the client book afterwards.
type ClientInfo struct {
	ID           string `json:"id"`
	Firstname    string `json:"firstname"`
	Lastname     string `json:"lastname"`
	ActivityName string `json:"activity_name,omitempty"`
	Address      string `json:"address,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	LegalStatus  string `json:"legal_status,omitempty"`
}

// IsZero reports whether the snapshot carries no client at all.
func (c ClientInfo) IsZero() bool {
	return c.ID == ""
}

// DisplayName returns the activity name when set, otherwise "Firstname Lastname".
func (c ClientInfo) DisplayName() string {
	if c.ActivityName != "" {
		return c.ActivityName
	}
	return strings.TrimSpace(c.Firstname + " " + c.Lastname)
}

// Client is an entry of a user's client book.
// Implements the Ownable interface for ownership-based authorization.
type Client struct {
	ClientInfo
	UserID string `json:"user_id"`
}

// GetUserID implements the Ownable interface for authorization.
func (c Client) GetUserID() string {
	return c.UserID
}

// Info returns the snapshot to embed in a quotation.
func (c Client) Info() ClientInfo {
	return c.ClientInfo
}
