package auth

import "encoding/json"

// Account is a known user together with its session token.
type Account struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
	Role   string `json:"role,omitempty"`
	Token  string `json:"token"`
}

// Session is the persisted authentication state. Token and ActiveAccountID
// are empty when absent and are stored as null.
type Session struct {
	User            *Account
	Token           string
	Accounts        []Account
	ActiveAccountID string
	IsAuthenticated bool
}

type sessionJSON struct {
	User            *Account  `json:"user"`
	Token           *string   `json:"token"`
	Accounts        []Account `json:"accounts"`
	ActiveAccountID *string   `json:"activeAccountId"`
	IsAuthenticated bool      `json:"isAuthenticated"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s Session) MarshalJSON() ([]byte, error) {
	accounts := s.Accounts
	if accounts == nil {
		accounts = []Account{}
	}
	return json.Marshal(sessionJSON{
		User:            s.User,
		Token:           optional(s.Token),
		Accounts:        accounts,
		ActiveAccountID: optional(s.ActiveAccountID),
		IsAuthenticated: s.IsAuthenticated,
	})
}

// UnmarshalJSON decodes over the current value, so fields missing from
// data keep what s already holds.
func (s *Session) UnmarshalJSON(data []byte) error {
	aux := sessionJSON{
		User:            s.User,
		Token:           optional(s.Token),
		Accounts:        s.Accounts,
		ActiveAccountID: optional(s.ActiveAccountID),
		IsAuthenticated: s.IsAuthenticated,
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Session{
		User:            aux.User,
		Token:           deref(aux.Token),
		Accounts:        aux.Accounts,
		ActiveAccountID: deref(aux.ActiveAccountID),
		IsAuthenticated: aux.IsAuthenticated,
	}
	return nil
}

// normalize restores the session invariants: at most one account per id,
// an active id that names a known account, and IsAuthenticated set exactly
// when a user holds the current token.
func (s *Session) normalize() {
	seen := make(map[string]bool, len(s.Accounts))
	accounts := s.Accounts[:0:0]
	for _, a := range s.Accounts {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		accounts = append(accounts, a)
	}
	s.Accounts = accounts

	if s.ActiveAccountID != "" && !seen[s.ActiveAccountID] {
		s.ActiveAccountID = ""
	}
	s.IsAuthenticated = s.User != nil && s.Token != "" && s.User.Token == s.Token
}

func findAccount(accounts []Account, match func(Account) bool) (Account, bool) {
	for _, a := range accounts {
		if match(a) {
			return a, true
		}
	}
	return Account{}, false
}
