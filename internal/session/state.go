package session

import "supermart/internal/domain"

const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
)

type Flash struct {
	Kind string `json:"kind"`
	Msg  string `json:"msg"`
}

// State is everything the storefront keeps per browser session.
type State struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`

	Cart      domain.Cart            `json:"cart"`
	Checkout  domain.CheckoutAttempt `json:"checkout"`
	LastOrder *domain.OrderSnapshot  `json:"last_order,omitempty"`

	Flash []Flash `json:"flash,omitempty"`

	discarded bool
}

func (s *State) LoggedIn() bool { return s.UserID != "" }

func (s *State) Login(u *domain.User) {
	s.UserID, s.Username, s.Role = u.ID, u.Username, u.Role
}

func (s *State) AddFlash(kind, msg string) {
	s.Flash = append(s.Flash, Flash{Kind: kind, Msg: msg})
}

// TakeFlash returns pending messages and forgets them.
func (s *State) TakeFlash() []Flash {
	f := s.Flash
	s.Flash = nil
	return f
}
