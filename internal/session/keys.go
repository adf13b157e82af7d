package session

// BoardKeyStore holds one session's own map API key. Until the session
// saves a key it reads the shared key, which it never writes.
type BoardKeyStore struct {
	own    MemoryKeyStore
	shared KeyStore
}

// NewBoardKeyStore creates a session key store over shared, which may be nil.
func NewBoardKeyStore(shared KeyStore) *BoardKeyStore {
	return &BoardKeyStore{shared: shared}
}

// MapAPIKey returns the session's key, else the shared one.
func (s *BoardKeyStore) MapAPIKey() (string, error) {
	key, _ := s.own.MapAPIKey()
	if key != "" || s.shared == nil {
		return key, nil
	}
	return s.shared.MapAPIKey()
}

// SetMapAPIKey saves the key for this session only.
func (s *BoardKeyStore) SetMapAPIKey(key string) error {
	return s.own.SetMapAPIKey(key)
}
