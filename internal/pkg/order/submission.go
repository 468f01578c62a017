package order

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingPackage = errors.New("package is required")
	ErrNegativePrice  = errors.New("price must not be negative")
	ErrPriceTooLarge  = errors.New("price exceeds the maximum charge amount")
)

// MaxUnitAmount is the largest amount in cents Stripe accepts for a charge.
const MaxUnitAmount = 99999999

var (
	validate = validator.New()
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(MaxUnitAmount)
)

// CheckoutRequest is the body of POST /create-checkout-session.
//
// The storefront historically spells the key "packege"; both spellings are
// accepted and "package" wins when both are sent.
type CheckoutRequest struct {
	Package       *Submission `json:"package"`
	LegacyPackage *Submission `json:"packege"`
}

// Submission returns the package object of the request, normalized.
func (r CheckoutRequest) Submission() (*Submission, error) {
	s := r.Package
	if s == nil {
		s = r.LegacyPackage
	}
	if s == nil {
		return nil, ErrMissingPackage
	}
	if s.Plan == "" {
		s.Plan = s.LegacyPlan
	}
	return s, nil
}

// Submission is the product the customer pays for plus the order fields.
// Plan is sent under the key "package" inside the package object.
type Submission struct {
	Name        string          `json:"name" validate:"required,max=250"`
	Description string          `json:"description" validate:"max=500"`
	Price       decimal.Decimal `json:"price"`

	MarkName        string `json:"markName"`
	OwnershipType   string `json:"ownershipType"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Country         string `json:"country"`
	Address         string `json:"address"`
	City            string `json:"city"`
	State           string `json:"state"`
	Zip             Text   `json:"zip"`
	Phone           Text   `json:"phone"`
	Email           string `json:"email"`
	SearchType      string `json:"searchType"`
	Plan            string `json:"package"`
	LegacyPlan      string `json:"packege"`
	ProcessingSpeed string `json:"processingSpeed"`
	TermsAccepted   Flag   `json:"termsAccepted"`
}

// Validate checks the fields Stripe needs before a session is requested.
func (s *Submission) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	if s.Price.IsNegative() {
		return ErrNegativePrice
	}
	if s.Price.Mul(hundred).Floor().GreaterThan(maxCents) {
		return ErrPriceTooLarge
	}
	return nil
}

// UnitAmount is the price in cents, truncated: floor(price * 100).
func (s *Submission) UnitAmount() int64 {
	return UnitAmount(s.Price)
}

func UnitAmount(price decimal.Decimal) int64 {
	return price.Mul(hundred).Floor().IntPart()
}

// Order maps the submission onto the metadata carried by the session.
func (s *Submission) Order() Order {
	return Order{
		MarkName:        s.MarkName,
		OwnershipType:   s.OwnershipType,
		FirstName:       s.FirstName,
		LastName:        s.LastName,
		Country:         s.Country,
		Address:         s.Address,
		City:            s.City,
		State:           s.State,
		Zip:             string(s.Zip),
		Phone:           string(s.Phone),
		Email:           s.Email,
		Description:     s.Description,
		SearchType:      s.SearchType,
		Plan:            s.Plan,
		ProcessingSpeed: s.ProcessingSpeed,
		TermsAccepted:   strconv.FormatBool(bool(s.TermsAccepted)),
	}
}

// Flag is a boolean that also accepts the string forms browsers tend to post.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = false
		return nil
	}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*f = Flag(v)
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1":
			*f = true
		case "", "false", "no", "off", "0":
			*f = false
		default:
			return fmt.Errorf("invalid boolean %q", v)
		}
	default:
		return fmt.Errorf("invalid boolean %s", b)
	}
	return nil
}

// Text is a string that also accepts JSON numbers, for zip codes and phone
// numbers typed into number inputs.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}
