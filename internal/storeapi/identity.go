package storeapi

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nippysky/marobi/internal/checkout"
	"github.com/nippysky/marobi/internal/domain"
)

// ResolveBuyer turns the caller identity into a checkout buyer. A customer
// id makes the order a registered one and the contact bundle, if any,
// becomes a contact update. Otherwise the bundle is the guest snapshot.
// Existence of the customer is checked inside the order transaction.
func ResolveBuyer(customerID string, contact *domain.ContactInfo) (checkout.Buyer, error) {
	var buyer checkout.Buyer
	if contact != nil {
		ci := trimContact(*contact)
		buyer.Contact = &ci
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return buyer, nil
	}
	id, err := strconv.ParseInt(customerID, 10, 64)
	if err != nil || id <= 0 {
		return checkout.Buyer{}, fmt.Errorf("%w: invalid customer id %q", checkout.ErrValidation, customerID)
	}
	buyer.CustomerID = &id
	return buyer, nil
}

func trimContact(ci domain.ContactInfo) domain.ContactInfo {
	return domain.ContactInfo{
		FirstName:  strings.TrimSpace(ci.FirstName),
		LastName:   strings.TrimSpace(ci.LastName),
		Email:      strings.ToLower(strings.TrimSpace(ci.Email)),
		Phone:      strings.TrimSpace(ci.Phone),
		Address:    strings.TrimSpace(ci.Address),
		City:       strings.TrimSpace(ci.City),
		State:      strings.TrimSpace(ci.State),
		Country:    strings.TrimSpace(ci.Country),
		PostalCode: strings.TrimSpace(ci.PostalCode),
	}
}
