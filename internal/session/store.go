package session

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"

	"supermart/internal/log"
)

const (
	stateKey  = "state"
	localsKey = "session.state"
	rawKey    = "session.raw"
)

// Store loads and persists State for the current request.
type Store interface {
	Load(c *fiber.Ctx) (*State, error)
	Save(c *fiber.Ctx, st *State) error
	// Regenerate issues a new session id, keeping the data.
	Regenerate(c *fiber.Ctx) error
	Destroy(c *fiber.Ctx) error
}

// FiberStore keeps State JSON-encoded under one key of a fiber session.
type FiberStore struct {
	store *fibersession.Store
}

// NewStore builds a cookie-backed session store. storage may be nil for the
// in-memory default.
func NewStore(ttl time.Duration, storage fiber.Storage) *FiberStore {
	cfg := fibersession.Config{
		Expiration:     ttl,
		KeyLookup:      "cookie:sid",
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
	}
	if storage != nil {
		cfg.Storage = storage
	}
	return &FiberStore{store: fibersession.New(cfg)}
}

func (s *FiberStore) raw(c *fiber.Ctx) (*fibersession.Session, error) {
	if sess, ok := c.Locals(rawKey).(*fibersession.Session); ok && sess != nil {
		return sess, nil
	}
	sess, err := s.store.Get(c)
	if err != nil {
		return nil, err
	}
	c.Locals(rawKey, sess)
	return sess, nil
}

func (s *FiberStore) Load(c *fiber.Ctx) (*State, error) {
	sess, err := s.raw(c)
	if err != nil {
		return nil, err
	}
	st := &State{}
	if b, ok := sess.Get(stateKey).(string); ok && b != "" {
		if err := json.Unmarshal([]byte(b), st); err != nil {
			// A state we cannot read is dropped rather than wedging the session.
			log.Error(c, "session.decode.fail", err, nil)
			return &State{}, nil
		}
	}
	return st, nil
}

func (s *FiberStore) Save(c *fiber.Ctx, st *State) error {
	sess, err := s.raw(c)
	if err != nil {
		return err
	}
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	sess.Set(stateKey, string(b))
	return sess.Save()
}

func (s *FiberStore) Regenerate(c *fiber.Ctx) error {
	sess, err := s.raw(c)
	if err != nil {
		return err
	}
	return sess.Regenerate()
}

func (s *FiberStore) Destroy(c *fiber.Ctx) error {
	sess, err := s.raw(c)
	if err != nil {
		return err
	}
	if st, ok := c.Locals(localsKey).(*State); ok {
		st.discarded = true
	}
	return sess.Destroy()
}

// Middleware loads the state into Locals before the handler and saves it
// afterwards.
func Middleware(store Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := store.Load(c)
		if err != nil {
			log.Error(c, "session.load.fail", err, nil)
			return fiber.ErrInternalServerError
		}
		c.Locals(localsKey, st)
		herr := c.Next()
		if st.discarded {
			return herr
		}
		if err := store.Save(c, st); err != nil {
			log.Error(c, "session.save.fail", err, nil)
			if herr != nil {
				return herr
			}
			return fiber.ErrInternalServerError
		}
		return herr
	}
}

// From returns the request's state. Outside the middleware it returns an
// empty, unsaved state.
func From(c *fiber.Ctx) *State {
	if st, ok := c.Locals(localsKey).(*State); ok && st != nil {
		return st
	}
	st := &State{}
	c.Locals(localsKey, st)
	return st
}
