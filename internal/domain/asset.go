package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// AssetRef identifies any ownable item uniformly. The rental engine does
// not care which collection an asset belongs to.
type AssetRef struct {
	Collection Address `json:"collection"`
	TokenID    uint64  `json:"token_id"`
}

func NewAssetRef(collection Address, tokenID uint64) AssetRef {
	return AssetRef{Collection: collection, TokenID: tokenID}
}

// Key is the storage key of the asset: "<collection>/<tokenId>".
func (a AssetRef) Key() string {
	return string(a.Collection) + "/" + strconv.FormatUint(a.TokenID, 10)
}

func (a AssetRef) String() string { return a.Key() }

// ParseAssetKey is the inverse of AssetRef.Key.
func ParseAssetKey(key string) (AssetRef, error) {
	collection, token, ok := strings.Cut(key, "/")
	if !ok {
		return AssetRef{}, fmt.Errorf("malformed asset key %q", key)
	}
	addr, err := ParseAddress(collection)
	if err != nil {
		return AssetRef{}, err
	}
	id, err := strconv.ParseUint(token, 10, 64)
	if err != nil {
		return AssetRef{}, fmt.Errorf("malformed token id in %q: %w", key, err)
	}
	return NewAssetRef(addr, id), nil
}
