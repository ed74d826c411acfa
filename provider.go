package kilnlog

// TokenProvider resolves bearer tokens to caller identities. Implementations
// must return ErrUnauthorized for unknown tokens.
type TokenProvider interface {
	Resolve(token string) (Identity, error)
}
