package models

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Email is one rendered notification ready for dispatch.
type Email struct {
	To        Address `json:"to"`
	From      Address `json:"from"`
	Subject   string  `json:"subject"`
	PlainBody string  `json:"plain_body"`
	HTMLBody  string  `json:"html_body,omitempty"`
	// HTML is false when the recipient only accepts plain text mail.
	HTML bool `json:"html"`
}
