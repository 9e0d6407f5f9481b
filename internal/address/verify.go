package address

import (
	"context"
	"strings"
)

const DefaultVerifyEndpoint = "/api/verify-address"

// Poster is the backend call the verifier makes.
type Poster interface {
	PostJSON(ctx context.Context, path string, body, out interface{}) error
}

// Verification is the outcome of checking an address with the backend.
type Verification struct {
	Address  Address `json:"address"`
	Verified bool    `json:"verified"`
	// Reason is set when the backend could not confirm the address.
	Reason string `json:"reason,omitempty"`
}

// Verifier asks the backend to confirm and standardize a parsed address.
type Verifier struct {
	poster   Poster
	endpoint string
}

func NewVerifier(poster Poster, endpoint string) *Verifier {
	if endpoint == "" {
		endpoint = DefaultVerifyEndpoint
	}
	return &Verifier{poster: poster, endpoint: endpoint}
}

type verifyResponse struct {
	Verified  bool    `json:"verified"`
	Valid     *bool   `json:"valid"`
	Address   Address `json:"address"`
	Formatted string  `json:"formattedAddress"`
	Message   string  `json:"message"`
}

// Verify returns the standardized address when the backend confirms it. A
// backend failure is returned alongside an unverified result holding the
// input, so callers can keep going with the parsed fields.
func (v *Verifier) Verify(ctx context.Context, a Address) (Verification, error) {
	var resp verifyResponse
	if err := v.poster.PostJSON(ctx, v.endpoint, a, &resp); err != nil {
		return Verification{Address: a, Reason: "verification unavailable"}, err
	}

	verified := resp.Verified || (resp.Valid != nil && *resp.Valid)
	out := Verification{Address: a, Verified: verified, Reason: strings.TrimSpace(resp.Message)}
	if !verified {
		return out, nil
	}

	switch {
	case resp.Address.City != "" || resp.Address.Street != "":
		out.Address = resp.Address.WithFallback(a.City, a.State)
		if out.Address.Zip == "" {
			out.Address.Zip = a.Zip
		}
	case resp.Formatted != "":
		out.Address = Parse(resp.Formatted).WithFallback(a.City, a.State)
	}
	return out, nil
}
