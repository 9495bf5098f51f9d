package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landrent-backend/internal/domain"
)

var (
	landAddr = domain.MustParseAddress("0x000000000000000000000000000000000000a11d")
	alice    = domain.MustParseAddress("0x00000000000000000000000000000000000000a1")
	bob      = domain.MustParseAddress("0x00000000000000000000000000000000000000b0")
)

func TestRegistry_ResolvesCollections(t *testing.T) {
	ctx := context.Background()
	lands := NewNFTCollection(landAddr)
	require.NoError(t, lands.Mint(alice, 1))

	r := New()
	r.Register(landAddr, lands)

	owner, err := r.OwnerOf(ctx, domain.NewAssetRef(landAddr, 1))
	require.NoError(t, err)
	assert.Equal(t, alice, owner)

	_, err = r.OwnerOf(ctx, domain.NewAssetRef(landAddr, 2))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = r.OwnerOf(ctx, domain.NewAssetRef(bob, 1))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestNFTCollection_TransferFrom(t *testing.T) {
	ctx := context.Background()
	lands := NewNFTCollection(landAddr)
	require.NoError(t, lands.Mint(alice, 7))
	assert.Error(t, lands.Mint(bob, 7))

	err := lands.TransferFrom(ctx, bob, alice, bob, 7)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)

	lands.SetApprovalForAll(ctx, alice, bob, true)
	approved, _ := lands.IsApprovedForAll(ctx, alice, bob)
	assert.True(t, approved)
	require.NoError(t, lands.TransferFrom(ctx, bob, alice, bob, 7))

	owner, _ := lands.OwnerOf(ctx, 7)
	assert.Equal(t, bob, owner)

	err = lands.TransferFrom(ctx, alice, alice, bob, 7)
	assert.ErrorIs(t, err, domain.ErrNotAuthorized)
}

type fixedCollection struct{}

func (fixedCollection) OwnerOf(ctx context.Context, tokenID uint64) (domain.Address, error) {
	return alice, nil
}

func (fixedCollection) IsApprovedForAll(ctx context.Context, owner, operator domain.Address) (bool, error) {
	return false, nil
}

func TestRegistry_SetApprovalForAll(t *testing.T) {
	ctx := context.Background()
	lands := NewNFTCollection(landAddr)
	r := New()
	r.Register(landAddr, lands)
	r.Register(bob, fixedCollection{})

	require.NoError(t, r.SetApprovalForAll(ctx, landAddr, alice, bob, true))
	approved, err := r.IsApprovedForAll(ctx, landAddr, alice, bob)
	require.NoError(t, err)
	assert.True(t, approved)

	assert.ErrorIs(t, r.SetApprovalForAll(ctx, bob, alice, bob, true), domain.ErrNotAuthorized)
	assert.ErrorIs(t, r.SetApprovalForAll(ctx, alice, alice, bob, true), domain.ErrNotFound)
}
