package screens

import (
	"context"
	"errors"
	"sync"

	"campusdate/internal/api"
	"campusdate/internal/models"
)

// ProfileScreen shows and edits the signed-in user's profile
type ProfileScreen struct {
	deps Deps

	mu       sync.RWMutex
	snapshot *models.UserSnapshot
}

// NewProfileScreen creates a profile screen
func NewProfileScreen(deps Deps) *ProfileScreen {
	return &ProfileScreen{deps: deps}
}

// Mount loads the cached profile from the session
func (s *ProfileScreen) Mount(ctx context.Context) error {
	sess, err := s.deps.requireSession(ctx)
	if err != nil {
		return err
	}
	s.setSnapshot(sess.User)
	return nil
}

func (s *ProfileScreen) setSnapshot(u models.UserSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = &u
}

// Snapshot returns the profile as last seen
func (s *ProfileScreen) Snapshot() (models.UserSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return models.UserSnapshot{}, false
	}
	return *s.snapshot, true
}

func (s *ProfileScreen) userID() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return 0, ErrNotMounted
	}
	return s.snapshot.UserID, nil
}

// store writes u to both the screen and the session
func (s *ProfileScreen) store(ctx context.Context, u *models.User) error {
	snap := u.Snapshot()
	s.setSnapshot(snap)
	return s.deps.Session.UpdateUser(ctx, snap)
}

// Refresh re-fetches the profile and updates the cached snapshot
func (s *ProfileScreen) Refresh(ctx context.Context) error {
	id, err := s.userID()
	if err != nil {
		return err
	}
	u, err := s.deps.API.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			s.deps.Session.ClearSession(ctx)
			s.deps.Nav.Replace(RouteLogin)
		}
		return err
	}
	return s.store(ctx, u)
}

// Update applies the non-nil fields of update
func (s *ProfileScreen) Update(ctx context.Context, update models.UserUpdate) (*models.User, error) {
	id, err := s.userID()
	if err != nil {
		return nil, err
	}
	u, err := s.deps.API.UpdateUser(ctx, id, update)
	if err != nil {
		s.deps.alertError("Error", err)
		return nil, err
	}
	if err := s.store(ctx, u); err != nil {
		return nil, err
	}
	s.deps.Alerts.Alert("Profile", "Profile updated!")
	return u, nil
}

// UploadImage replaces the profile picture
func (s *ProfileScreen) UploadImage(ctx context.Context, filename string, data []byte) error {
	id, err := s.userID()
	if err != nil {
		return err
	}
	img, err := s.deps.API.UploadImage(ctx, id, filename, data)
	if err != nil {
		s.deps.alertError("Error", err)
		return err
	}

	s.mu.Lock()
	if s.snapshot == nil {
		s.mu.Unlock()
		return ErrNotMounted
	}
	snap := *s.snapshot
	snap.Image = &models.Image{Base64String: img.ImageBase64}
	s.snapshot = &snap
	s.mu.Unlock()

	if err := s.deps.Session.UpdateUser(ctx, snap); err != nil {
		return err
	}
	s.deps.Alerts.Alert("Profile", "Image updated!")
	return nil
}

// Logout clears the session and returns to the login screen
func (s *ProfileScreen) Logout(ctx context.Context) {
	s.deps.Session.ClearSession(ctx)
	s.mu.Lock()
	s.snapshot = nil
	s.mu.Unlock()
	s.deps.Nav.Replace(RouteLogin)
}

// DeleteAccount removes the account on the server, then signs out
func (s *ProfileScreen) DeleteAccount(ctx context.Context) error {
	id, err := s.userID()
	if err != nil {
		return err
	}
	if err := s.deps.API.DeleteUser(ctx, id); err != nil {
		s.deps.alertError("Error", err)
		return err
	}

	s.deps.Log.Info().Int64("user_id", id).Msg("Account deleted")
	s.deps.Alerts.Alert("Account", "Your account has been deleted.")
	s.Logout(ctx)
	return nil
}

// UserProfileScreen shows someone else's profile
type UserProfileScreen struct {
	deps   Deps
	userID int64

	mu   sync.RWMutex
	user *models.User
}

// NewUserProfileScreen creates a read-only profile view of userID
func NewUserProfileScreen(deps Deps, userID int64) *UserProfileScreen {
	return &UserProfileScreen{deps: deps, userID: userID}
}

// Mount checks the session and loads the profile
func (s *UserProfileScreen) Mount(ctx context.Context) error {
	if _, err := s.deps.requireSession(ctx); err != nil {
		return err
	}
	return s.Load(ctx)
}

// Load fetches the profile and its image. A missing image is not an error.
func (s *UserProfileScreen) Load(ctx context.Context) error {
	u, err := s.deps.API.GetUser(ctx, s.userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			s.deps.Alerts.Alert("Profile", "This user no longer exists.")
		} else {
			s.deps.alertError("Error", err)
		}
		return err
	}

	img, err := s.deps.API.GetImageByUser(ctx, s.userID)
	switch {
	case err == nil:
		u.ImageBase64 = img.ImageBase64
	case errors.Is(err, api.ErrNotFound):
	default:
		s.deps.Log.Warn().Err(err).Int64("user_id", s.userID).Msg("Failed to load profile image")
	}

	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return nil
}

// User returns the loaded profile
func (s *UserProfileScreen) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// PreferencesScreen edits the discovery filter
type PreferencesScreen struct {
	deps Deps

	mu     sync.RWMutex
	userID int64
	pref   *models.Preference
}

// NewPreferencesScreen creates a preferences screen
func NewPreferencesScreen(deps Deps) *PreferencesScreen {
	return &PreferencesScreen{deps: deps}
}

// Mount reads the session and loads the current preference
func (s *PreferencesScreen) Mount(ctx context.Context) error {
	sess, err := s.deps.requireSession(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.userID = sess.User.UserID
	s.mu.Unlock()

	_, err = s.Load(ctx)
	return err
}

// Load fetches the preference. A user without one yet gets nil, nil.
func (s *PreferencesScreen) Load(ctx context.Context) (*models.Preference, error) {
	s.mu.RLock()
	userID := s.userID
	s.mu.RUnlock()
	if userID == 0 {
		return nil, ErrNotMounted
	}

	pref, err := s.deps.API.GetPreferenceByUser(ctx, userID)
	if errors.Is(err, api.ErrNotFound) {
		pref, err = nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.pref = pref
	s.mu.Unlock()
	return pref, nil
}

// Preference returns the loaded preference, if any
func (s *PreferencesScreen) Preference() (models.Preference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pref == nil {
		return models.Preference{}, false
	}
	return *s.pref, true
}

// Save replaces the existing preference wholesale or creates the first one
func (s *PreferencesScreen) Save(ctx context.Context, pref models.Preference) (*models.Preference, error) {
	s.mu.RLock()
	userID := s.userID
	existing := s.pref
	s.mu.RUnlock()
	if userID == 0 {
		return nil, ErrNotMounted
	}

	pref.User = models.UserRef{UserID: userID}
	if err := pref.Validate(); err != nil {
		s.deps.alertError("Error", err)
		return nil, err
	}

	var (
		saved *models.Preference
		err   error
	)
	if existing != nil {
		pref.PreferenceID = existing.PreferenceID
		saved, err = s.deps.API.UpdatePreference(ctx, pref)
	} else {
		pref.PreferenceID = 0
		saved, err = s.deps.API.CreatePreference(ctx, pref)
	}
	if err != nil {
		s.deps.alertError("Error", err)
		return nil, err
	}

	s.mu.Lock()
	s.pref = saved
	s.mu.Unlock()

	s.deps.Alerts.Alert("Success", "Preference updated!")
	return saved, nil
}

// Reset deletes the stored preference
func (s *PreferencesScreen) Reset(ctx context.Context) error {
	s.mu.RLock()
	existing := s.pref
	s.mu.RUnlock()
	if existing == nil {
		return nil
	}

	if err := s.deps.API.DeletePreference(ctx, existing.PreferenceID); err != nil {
		s.deps.alertError("Error", err)
		return err
	}

	s.mu.Lock()
	s.pref = nil
	s.mu.Unlock()

	s.deps.Alerts.Alert("Success", "Preference cleared.")
	return nil
}
