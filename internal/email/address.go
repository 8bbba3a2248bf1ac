package email

import (
	"fmt"
	"strings"

	"github.com/zostay/go-addr/pkg/addr"
)

// ParseAddressListStrict parses a header value such as
// `"Jane Doe" <jane@example.com>, bob@example.com` as an RFC 5322 address list
func ParseAddressListStrict(s string) ([]Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	al, err := addr.ParseEmailAddressList(s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse address list: %w", err)
	}

	addresses := make([]Address, 0, len(al))
	for _, a := range al {
		if a.Address() == "" {
			continue
		}
		addresses = append(addresses, Address{
			Name:  strings.Trim(a.DisplayName(), `"`),
			Email: a.Address(),
		})
	}
	return addresses, nil
}

// ParseAddressList parses a recipient header value. Values the strict parser
// rejects are split naively on commas and semicolons.
func ParseAddressList(s string) []Address {
	if addresses, err := ParseAddressListStrict(s); err == nil {
		return addresses
	}
	return ParseAddresses(s)
}

// FormatAddresses returns the display form of each address
func FormatAddresses(addresses []Address) []string {
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		out = append(out, a.String())
	}
	return out
}
