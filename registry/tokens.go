package registry

import (
	"errors"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// MintDeviceToken mints the ownership token for a registered device. The
// caller must be the node's manager; the device must exist and must not
// already have a token.
func (r *Registry) MintDeviceToken(caller interfaces.Address, nodeID interfaces.NodeID, deviceID string, to interfaces.Address) (interfaces.Hash32, error) {
	if to.IsZero() {
		return interfaces.Hash32{}, errors.New("mint to the zero address")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireManager(caller, nodeID); err != nil {
		return interfaces.Hash32{}, err
	}

	deviceKey := interfaces.CompositeKey(string(nodeID), deviceID)
	if _, exists := r.devices[deviceKey]; !exists {
		return interfaces.Hash32{}, interfaces.ErrNotFound
	}

	tokenID := DeviceTokenID(nodeID, deviceID)
	if _, exists := r.tokens[tokenID]; exists {
		return interfaces.Hash32{}, interfaces.ErrDuplicateEntry
	}

	r.tokens[tokenID] = interfaces.DeviceToken{
		TokenID:  tokenID,
		NodeID:   nodeID,
		DeviceID: deviceID,
		Owner:    to,
		MintedAt: r.now(),
	}
	r.tokenIDs = append(r.tokenIDs, tokenID)

	r.emit("tokens.mint", tokenID.String(), caller)
	return tokenID, nil
}

// TransferDeviceToken moves a token to a new owner. The caller must be the
// current owner.
func (r *Registry) TransferDeviceToken(caller interfaces.Address, tokenID interfaces.Hash32, to interfaces.Address) error {
	if to.IsZero() {
		return errors.New("transfer to the zero address")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	token, exists := r.tokens[tokenID]
	if !exists {
		return interfaces.ErrNotFound
	}
	if !token.Owner.Equal(caller) {
		return interfaces.ErrNotTokenOwner
	}

	token.Owner = to
	r.tokens[tokenID] = token

	r.emit("tokens.transfer", tokenID.String(), caller)
	return nil
}

// BurnDeviceToken destroys a token. The caller must be the manager of the
// token's node.
func (r *Registry) BurnDeviceToken(caller interfaces.Address, tokenID interfaces.Hash32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, exists := r.tokens[tokenID]
	if !exists {
		return interfaces.ErrNotFound
	}
	if err := r.requireManager(caller, token.NodeID); err != nil {
		return err
	}

	delete(r.tokens, tokenID)
	r.tokenIDs = swapPop(r.tokenIDs, tokenID)

	r.emit("tokens.burn", tokenID.String(), caller)
	return nil
}

// Token returns a minted token by identifier.
func (r *Registry) Token(tokenID interfaces.Hash32) (interfaces.DeviceToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, exists := r.tokens[tokenID]
	if !exists {
		return interfaces.DeviceToken{}, interfaces.ErrNotFound
	}
	return token, nil
}

// TokenOwner returns the current owner of a token.
func (r *Registry) TokenOwner(tokenID interfaces.Hash32) (interfaces.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, exists := r.tokens[tokenID]
	if !exists {
		return interfaces.Address{}, interfaces.ErrNotFound
	}
	return token.Owner, nil
}

// TokensOf enumerates the tokens held by an owner, in mint-array order.
func (r *Registry) TokensOf(owner interfaces.Address) []interfaces.DeviceToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []interfaces.DeviceToken
	for _, id := range r.tokenIDs {
		if token := r.tokens[id]; token.Owner.Equal(owner) {
			out = append(out, token)
		}
	}
	return out
}

// Tokens enumerates all minted tokens in mint-array order.
func (r *Registry) Tokens() []interfaces.DeviceToken {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]interfaces.DeviceToken, 0, len(r.tokenIDs))
	for _, id := range r.tokenIDs {
		out = append(out, r.tokens[id])
	}
	return out
}
