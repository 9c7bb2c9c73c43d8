package session

import (
	"time"

	"qashop/internal/domain"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
)

// CookieName carries the opaque session id.
const CookieName = "session_id"

type Config struct {
	Expiration   time.Duration
	CookieSecure bool
	Storage      fiber.Storage // nil uses fiber's in-memory storage
}

// Manager loads and stores State on top of fiber's session store. Requests
// that share a session run one after another under Serialize, so a save
// never overwrites a change made by a concurrent request.
type Manager struct {
	store *fibersession.Store
	locks *keyedMutex
}

func NewManager(cfg Config) *Manager {
	if cfg.Expiration <= 0 {
		cfg.Expiration = time.Hour
	}
	store := fibersession.New(fibersession.Config{
		Expiration:     cfg.Expiration,
		Storage:        cfg.Storage,
		KeyLookup:      "cookie:" + CookieName,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		CookieSecure:   cfg.CookieSecure,
		KeyGenerator:   uuid.NewString,
	})
	store.RegisterType(map[int64]int{})
	return &Manager{store: store, locks: newKeyedMutex()}
}

// Store is the underlying fiber store, shared with the csrf middleware
// which keeps its token under CSRFKey.
func (m *Manager) Store() *fibersession.Store { return m.store }

// Serialize holds the session lock for the rest of the handler chain.
// Everything that saves the session (csrf token refresh, Update, Rotate,
// Destroy) must run behind it.
func (m *Manager) Serialize() fiber.Handler {
	return func(c *fiber.Ctx) error {
		unlock := m.lock(c)
		defer unlock()
		return c.Next()
	}
}

// Load returns a read-only snapshot of the session. Changes to it are not
// persisted; use Update for that.
func (m *Manager) Load(c *fiber.Ctx) (*State, error) {
	sess, err := m.store.Get(c)
	if err != nil {
		return nil, err
	}
	return decode(sess), nil
}

// Update re-reads the session, applies fn and saves the result. Nothing is
// saved when fn returns an error.
func (m *Manager) Update(c *fiber.Ctx, fn func(*State) error) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	st := decode(sess)
	if err := fn(st); err != nil {
		return err
	}
	encode(sess, st)
	return m.save(c, sess)
}

// Rotate is Update followed by a new session id, used after login.
func (m *Manager) Rotate(c *fiber.Ctx, fn func(*State) error) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	st := decode(sess)
	if err := fn(st); err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	st.ID = sess.ID()
	encode(sess, st)
	return m.save(c, sess)
}

// Destroy drops the session data and expires the cookie.
func (m *Manager) Destroy(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Destroy(); err != nil {
		return err
	}
	c.Request().Header.DelCookie(CookieName)
	return nil
}

func (m *Manager) lock(c *fiber.Ctx) func() {
	id := c.Cookies(CookieName)
	if id == "" {
		// fresh session, nobody else can hold it yet
		return func() {}
	}
	return m.locks.Lock(id)
}

func (m *Manager) save(c *fiber.Ctx, sess *fibersession.Session) error {
	id := sess.ID()
	// sess must not be touched after Save.
	if err := sess.Save(); err != nil {
		return err
	}
	// Later lookups in this request read the request cookie.
	c.Request().Header.SetCookie(CookieName, id)
	return nil
}

func decode(sess *fibersession.Session) *State {
	st := &State{ID: sess.ID(), Cart: domain.NewCart()}
	if v, ok := sess.Get(keyUserID).(int64); ok {
		st.UserID = v
	}
	if v, ok := sess.Get(keyUsername).(string); ok {
		st.Username = v
	}
	if v, ok := sess.Get(keyUserType).(string); ok {
		st.Role = domain.Role(v)
	}
	if v, ok := sess.Get(keyCart).(map[int64]int); ok {
		st.Cart = domain.CartFromMap(v)
	}
	return st
}

func encode(sess *fibersession.Session, st *State) {
	if st.IsAuthenticated() {
		sess.Set(keyUserID, st.UserID)
		sess.Set(keyUsername, st.Username)
		sess.Set(keyUserType, string(st.Role))
	} else {
		sess.Delete(keyUserID)
		sess.Delete(keyUsername)
		sess.Delete(keyUserType)
	}
	sess.Set(keyCart, st.Cart.Map())
}
