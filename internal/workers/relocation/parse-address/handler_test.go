package parseaddress

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ezrelo/internal/address"
	commonerrors "ezrelo/internal/common/errors"
	"ezrelo/internal/common/logger"
)

type stubVerifier struct {
	result address.Verification
	err    error
	calls  int
}

func (s *stubVerifier) Verify(_ context.Context, a address.Address) (address.Verification, error) {
	s.calls++
	if s.err != nil {
		return address.Verification{Address: a}, s.err
	}
	return s.result, nil
}

func createTestConfig() *Config {
	return &Config{
		FallbackCity:  "Dallas",
		FallbackState: "TX",
		VerifyEnabled: true,
		Timeout:       5 * time.Second,
	}
}

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name         string
		input        *Input
		want         address.Address
		searchable   bool
		usedFallback bool
	}{
		{
			name:       "comma separated with zip",
			input:      &Input{Address: "123 Main St, Austin, TX 78701", Role: RoleFrom},
			want:       address.Address{Street: "123 Main St", City: "Austin", State: "TX", Zip: "78701"},
			searchable: true,
		},
		{
			name:       "no commas",
			input:      &Input{Address: "3201 Stonecrop Trail Argyle TX 76226", Role: RoleTo},
			want:       address.Address{Street: "3201 Stonecrop Trail", City: "Argyle", State: "TX", Zip: "76226"},
			searchable: true,
		},
		{
			name:         "missing state uses fallback",
			input:        &Input{Address: "Springfield"},
			want:         address.Address{City: "Springfield", State: "TX"},
			searchable:   true,
			usedFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), nil, logger.NewTestLogger(t))
			out, err := h.execute(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.ParsedAddress)
			assert.Equal(t, tt.searchable, out.Searchable)
			assert.Equal(t, tt.usedFallback, out.UsedFallback)
			assert.Equal(t, tt.input.Role, out.Role)
			assert.False(t, out.Verified)
		})
	}
}

func TestHandler_Execute_NoFallbackLeavesBlanks(t *testing.T) {
	cfg := createTestConfig()
	cfg.FallbackCity, cfg.FallbackState = "", ""
	h := NewHandler(cfg, nil, logger.NewTestLogger(t))

	out, err := h.execute(context.Background(), &Input{Address: "Springfield"})
	require.NoError(t, err)
	assert.Equal(t, "Springfield", out.ParsedAddress.City)
	assert.Empty(t, out.ParsedAddress.State)
	assert.False(t, out.Searchable)
	assert.False(t, out.UsedFallback)
}

func TestHandler_Execute_Errors(t *testing.T) {
	cfg := createTestConfig()
	cfg.FallbackCity, cfg.FallbackState = "", ""
	h := NewHandler(cfg, nil, logger.NewTestLogger(t))

	_, err := h.execute(context.Background(), &Input{Address: "   "})
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeInvalidInput, commonerrors.AsStandard(err).Code)

	_, err = h.execute(context.Background(), &Input{Address: ", , ,"})
	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeAddressUnparseable, commonerrors.AsStandard(err).Code)
}

func TestHandler_Execute_ZipOnly(t *testing.T) {
	cfg := createTestConfig()
	cfg.FallbackCity, cfg.FallbackState = "", ""
	h := NewHandler(cfg, nil, logger.NewTestLogger(t))

	out, err := h.execute(context.Background(), &Input{Address: "78701"})
	require.NoError(t, err)
	assert.Equal(t, "78701", out.ParsedAddress.Zip)
	assert.Empty(t, out.ParsedAddress.City)
	assert.False(t, out.Searchable)
}

func TestHandler_Execute_Verification(t *testing.T) {
	t.Run("verified address replaces parsed one", func(t *testing.T) {
		v := &stubVerifier{result: address.Verification{
			Address:  address.Address{Street: "123 Main Street", City: "Austin", State: "TX", Zip: "78701-4012"},
			Verified: true,
		}}
		h := NewHandler(createTestConfig(), v, logger.NewTestLogger(t))

		out, err := h.execute(context.Background(), &Input{Address: "123 Main St, Austin, TX 78701", Verify: true})
		require.NoError(t, err)
		assert.True(t, out.Verified)
		assert.Equal(t, "78701-4012", out.ParsedAddress.Zip)
		assert.Equal(t, 1, v.calls)
	})

	t.Run("verification failure is not fatal", func(t *testing.T) {
		v := &stubVerifier{err: errors.New("backend down")}
		h := NewHandler(createTestConfig(), v, logger.NewTestLogger(t))

		out, err := h.execute(context.Background(), &Input{Address: "123 Main St, Austin, TX 78701", Verify: true})
		require.NoError(t, err)
		assert.False(t, out.Verified)
		assert.Equal(t, "Austin", out.ParsedAddress.City)
	})

	t.Run("not requested", func(t *testing.T) {
		v := &stubVerifier{}
		h := NewHandler(createTestConfig(), v, logger.NewTestLogger(t))

		_, err := h.execute(context.Background(), &Input{Address: "Austin, TX"})
		require.NoError(t, err)
		assert.Zero(t, v.calls)
	})
}
