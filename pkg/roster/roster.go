package roster

import (
	"errors"
	"sort"
	"time"

	"github.com/akbarov/tushlikbot/pkg/ledger"
	"github.com/akbarov/tushlikbot/pkg/logger"
	"github.com/akbarov/tushlikbot/pkg/models"
	"github.com/akbarov/tushlikbot/pkg/storage"
)

var (
	// ErrAlreadyRegistered means the id already has an account
	ErrAlreadyRegistered = errors.New("account already registered")
	// ErrNotAdmin means the caller is not in the admin set
	ErrNotAdmin = errors.New("caller is not an admin")
	// ErrAlreadyAdmin means the target is already in the admin set
	ErrAlreadyAdmin = errors.New("already an admin")
	// ErrLastAdmin means the only remaining admin cannot remove themselves
	ErrLastAdmin = errors.New("cannot remove the last admin")
)

// Service provides participant registration and admin management
type Service struct {
	store  *storage.Store
	logger *logger.Logger
}

// New creates a new roster service
func New(store *storage.Store) *Service {
	return &Service{
		store:  store,
		logger: logger.New("roster"),
	}
}

// Register creates an account for the id. The very first registered account
// becomes the first admin: the bootstrap is an explicit transition guarded by
// an emptiness check on the admin set, through the same store write path as
// everything else.
func (s *Service) Register(id, name, phone string) (firstAdmin bool, err error) {
	err = s.store.Update(func(state *models.State) error {
		if _, ok := state.Users[id]; ok {
			return ErrAlreadyRegistered
		}
		state.Users[id] = &models.Account{
			ID:           id,
			Name:         name,
			Phone:        phone,
			RegisteredAt: time.Now(),
		}
		if len(state.Admins) == 0 {
			state.Admins = append(state.Admins, id)
			firstAdmin = true
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if firstAdmin {
		s.logger.Info("Bootstrapped first admin: %s", id)
	}
	return firstAdmin, nil
}

// Rename changes the account's display name and returns the old one
func (s *Service) Rename(id, newName string) (string, error) {
	var old string
	err := s.store.Update(func(state *models.State) error {
		acct, ok := state.Users[id]
		if !ok {
			return ledger.ErrUnknownAccount
		}
		old = acct.Name
		acct.Name = newName
		return nil
	})
	return old, err
}

// Account returns a copy of the account for the id
func (s *Service) Account(id string) (*models.Account, error) {
	var acct models.Account
	err := s.store.View(func(state *models.State) error {
		a, ok := state.Users[id]
		if !ok {
			return ledger.ErrUnknownAccount
		}
		acct = *a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// Accounts returns all accounts sorted by balance, lowest first
func (s *Service) Accounts() ([]*models.Account, error) {
	var accounts []*models.Account
	err := s.store.View(func(state *models.State) error {
		for _, a := range state.Users {
			acct := *a
			accounts = append(accounts, &acct)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].Balance != accounts[j].Balance {
			return accounts[i].Balance < accounts[j].Balance
		}
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

// IsAdmin reports whether the id is in the admin set
func (s *Service) IsAdmin(id string) bool {
	var admin bool
	if err := s.store.View(func(state *models.State) error {
		admin = state.IsAdmin(id)
		return nil
	}); err != nil {
		s.logger.Error("Failed to check admin set: %v", err)
		return false
	}
	return admin
}

// Admins returns the current admin id list
func (s *Service) Admins() ([]string, error) {
	var admins []string
	err := s.store.View(func(state *models.State) error {
		admins = append(admins, state.Admins...)
		return nil
	})
	return admins, err
}

// AddAdmin promotes a registered account to admin
func (s *Service) AddAdmin(callerID, targetID string) error {
	return s.store.Update(func(state *models.State) error {
		if !state.IsAdmin(callerID) {
			return ErrNotAdmin
		}
		if state.IsAdmin(targetID) {
			return ErrAlreadyAdmin
		}
		if _, ok := state.Users[targetID]; !ok {
			return ledger.ErrUnknownAccount
		}
		state.Admins = append(state.Admins, targetID)
		return nil
	})
}

// RemoveAdmin demotes an admin. The only remaining admin cannot remove
// themselves.
func (s *Service) RemoveAdmin(callerID, targetID string) error {
	return s.store.Update(func(state *models.State) error {
		if !state.IsAdmin(callerID) {
			return ErrNotAdmin
		}
		if !state.IsAdmin(targetID) {
			return ledger.ErrUnknownAccount
		}
		if targetID == callerID && len(state.Admins) == 1 {
			return ErrLastAdmin
		}
		for i, a := range state.Admins {
			if a == targetID {
				state.Admins = append(state.Admins[:i], state.Admins[i+1:]...)
				break
			}
		}
		return nil
	})
}

// AttendanceDates returns the settled dates on which the account was
// confirmed, oldest first
func (s *Service) AttendanceDates(id string) ([]string, error) {
	var dates []string
	err := s.store.View(func(state *models.State) error {
		if _, ok := state.Users[id]; !ok {
			return ledger.ErrUnknownAccount
		}
		for date, entry := range state.AttendanceHistory {
			for _, uid := range entry.Confirmed {
				if uid == id {
					dates = append(dates, date)
					break
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(dates)
	return dates, nil
}
