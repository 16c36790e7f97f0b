package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkSignerRoundTrip(t *testing.T) {
	signer := NewLinkSigner("secret", time.Hour)
	link, err := signer.Sign(7, "7/export_7.csv")
	require.NoError(t, err)
	require.NotEmpty(t, link.Token)

	got, err := signer.Verify(link.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ExportID)
	assert.Equal(t, "7/export_7.csv", got.Path)
	assert.True(t, got.ExpiresAt.Equal(link.ExpiresAt))
}

func TestLinkSignerRejectsForgery(t *testing.T) {
	signer := NewLinkSigner("secret", time.Hour)
	link, err := signer.Sign(7, "7/export_7.csv")
	require.NoError(t, err)

	_, err = NewLinkSigner("other", time.Hour).Verify(link.Token)
	assert.ErrorIs(t, err, ErrLinkInvalid)

	body, sig, _ := strings.Cut(link.Token, ".")
	other, err := signer.Sign(8, "8/export_8.csv")
	require.NoError(t, err)
	otherBody, _, _ := strings.Cut(other.Token, ".")
	_, err = signer.Verify(otherBody + "." + sig)
	assert.ErrorIs(t, err, ErrLinkInvalid)

	for _, token := range []string{"", "nodot", body + ".", "." + sig, body + ".!!"} {
		_, err = signer.Verify(token)
		assert.ErrorIs(t, err, ErrLinkInvalid, token)
	}

	_, err = NewLinkSigner("", time.Hour).Sign(7, "7/a.csv")
	require.Error(t, err)
	_, err = signer.Sign(0, "a.csv")
	require.Error(t, err)
}

func TestLinkSignerExpiry(t *testing.T) {
	signer := NewLinkSigner("secret", time.Hour)
	issued := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }
	link, err := signer.Sign(1, "1/export_1.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = signer.Verify(link.Token)
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(time.Hour) }
	got, err := signer.Verify(link.Token)
	assert.ErrorIs(t, err, ErrLinkExpired)
	assert.Equal(t, int64(1), got.ExportID)
}
