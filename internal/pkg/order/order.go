package order

import (
	"fmt"
	"strings"
)

// Metadata keys shared by the checkout session producer and the webhook
// consumer. Stripe metadata is string-only.
const (
	KeyMarkName        = "markName"
	KeyOwnershipType   = "ownershipType"
	KeyFirstName       = "firstName"
	KeyLastName        = "lastName"
	KeyCountry         = "country"
	KeyAddress         = "address"
	KeyCity            = "city"
	KeyState           = "state"
	KeyZip             = "zip"
	KeyPhone           = "phone"
	KeyEmail           = "email"
	KeyDescription     = "description"
	KeySearchType      = "searchType"
	KeyPlan            = "plan"
	KeyProcessingSpeed = "processingSpeed"
	KeyTermsAccepted   = "termsAccepted"
)

// Order is a trademark filing order as carried through Stripe metadata.
// TermsAccepted keeps its metadata form ("true"/"false") and is only turned
// into Yes/No when the notification is rendered.
type Order struct {
	MarkName        string
	OwnershipType   string
	FirstName       string
	LastName        string
	Country         string
	Address         string
	City            string
	State           string
	Zip             string
	Phone           string
	Email           string
	Description     string
	SearchType      string
	Plan            string
	ProcessingSpeed string
	TermsAccepted   string
}

type field struct {
	key   string
	label string
	value func(o *Order) *string
}

// fields is also the line order of the notification mail.
var fields = []field{
	{KeyMarkName, "Mark Name", func(o *Order) *string { return &o.MarkName }},
	{KeyOwnershipType, "Ownership Type", func(o *Order) *string { return &o.OwnershipType }},
	{KeyFirstName, "First Name", func(o *Order) *string { return &o.FirstName }},
	{KeyLastName, "Last Name", func(o *Order) *string { return &o.LastName }},
	{KeyCountry, "Country", func(o *Order) *string { return &o.Country }},
	{KeyAddress, "Address", func(o *Order) *string { return &o.Address }},
	{KeyCity, "City", func(o *Order) *string { return &o.City }},
	{KeyState, "State", func(o *Order) *string { return &o.State }},
	{KeyZip, "Zip", func(o *Order) *string { return &o.Zip }},
	{KeyPhone, "Phone", func(o *Order) *string { return &o.Phone }},
	{KeyEmail, "Email", func(o *Order) *string { return &o.Email }},
	{KeyDescription, "Description", func(o *Order) *string { return &o.Description }},
	{KeySearchType, "Search Type", func(o *Order) *string { return &o.SearchType }},
	{KeyPlan, "Package", func(o *Order) *string { return &o.Plan }},
	{KeyProcessingSpeed, "Processing Speed", func(o *Order) *string { return &o.ProcessingSpeed }},
	{KeyTermsAccepted, "Terms Accepted", func(o *Order) *string { return &o.TermsAccepted }},
}

// Metadata copies every field verbatim into a Stripe metadata map.
func (o Order) Metadata() map[string]string {
	md := make(map[string]string, len(fields))
	for _, f := range fields {
		md[f.key] = *f.value(&o)
	}
	return md
}

// FromMetadata rebuilds an order from checkout session metadata. Missing keys
// stay empty.
func FromMetadata(md map[string]string) Order {
	var o Order
	for _, f := range fields {
		*f.value(&o) = md[f.key]
	}
	return o
}

// TermsAcceptedLabel renders the terms flag for humans.
func (o Order) TermsAcceptedLabel() string {
	if strings.EqualFold(strings.TrimSpace(o.TermsAccepted), "true") {
		return "Yes"
	}
	return "No"
}

// Summary renders the fixed-order "Label: value" block, one field per line.
func (o Order) Summary() string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		v := *f.value(&o)
		if f.key == KeyTermsAccepted {
			v = o.TermsAcceptedLabel()
		}
		lines = append(lines, fmt.Sprintf("%s: %s", f.label, v))
	}
	return strings.Join(lines, "\n")
}

// NotificationBody is the text of the mail sent to the operations inbox.
func (o Order) NotificationBody() string {
	return fmt.Sprintf("You received a new email from: %s\n\nData:\n%s", o.Email, o.Summary())
}
