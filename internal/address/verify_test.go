package address

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type posterFunc func(ctx context.Context, path string, body, out interface{}) error

func (f posterFunc) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	return f(ctx, path, body, out)
}

func respond(resp verifyResponse) posterFunc {
	return func(_ context.Context, _ string, _, out interface{}) error {
		*(out.(*verifyResponse)) = resp
		return nil
	}
}

func TestVerifier_Verify(t *testing.T) {
	in := Parse("123 main st, austin, TX 78701")
	valid := true

	tests := []struct {
		name     string
		poster   posterFunc
		want     Address
		verified bool
		wantErr  bool
	}{
		{
			name:     "structured address",
			poster:   respond(verifyResponse{Verified: true, Address: Address{Street: "123 Main St", City: "Austin", State: "TX"}}),
			want:     Address{Street: "123 Main St", City: "Austin", State: "TX", Zip: "78701"},
			verified: true,
		},
		{
			name:     "formatted string",
			poster:   respond(verifyResponse{Valid: &valid, Formatted: "123 Main St, Austin, TX 78701-1234"}),
			want:     Address{Street: "123 Main St", City: "Austin", State: "TX", Zip: "78701-1234"},
			verified: true,
		},
		{
			name:   "not verified keeps input",
			poster: respond(verifyResponse{Message: "no match"}),
			want:   in,
		},
		{
			name: "backend failure keeps input",
			poster: func(context.Context, string, interface{}, interface{}) error {
				return errors.New("connection refused")
			},
			want:    in,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewVerifier(tt.poster, "").Verify(context.Background(), in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.verified, got.Verified)
			assert.Equal(t, tt.want, got.Address)
		})
	}
}

func TestVerifier_PostsToEndpoint(t *testing.T) {
	var gotPath string
	var gotBody interface{}
	v := NewVerifier(posterFunc(func(_ context.Context, path string, body, _ interface{}) error {
		gotPath, gotBody = path, body
		return nil
	}), "")

	a := Address{City: "Denver", State: "CO"}
	_, err := v.Verify(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, DefaultVerifyEndpoint, gotPath)
	assert.Equal(t, a, gotBody)
}
