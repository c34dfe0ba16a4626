package identity

// Login is an external sign-in tied to a user, identified by the
// (provider, provider key) pair. The display name is cosmetic.
type Login struct {
	Provider    string `bson:"provider" json:"provider"`
	ProviderKey string `bson:"providerKey" json:"provider_key"`
	DisplayName string `bson:"displayName,omitempty" json:"display_name,omitempty"`
}

// NewLogin creates a login. Provider and provider key cannot be empty.
func NewLogin(provider, providerKey, displayName string) (Login, error) {
	if provider == "" {
		return Login{}, NewDomainError(CodeInvalidInput, "login provider cannot be empty")
	}
	if providerKey == "" {
		return Login{}, NewDomainError(CodeInvalidInput, "login provider key cannot be empty")
	}
	return Login{Provider: provider, ProviderKey: providerKey, DisplayName: displayName}, nil
}

// Matches reports whether the login refers to the same (provider, key) pair.
func (l Login) Matches(provider, providerKey string) bool {
	return l.Provider == provider && l.ProviderKey == providerKey
}
