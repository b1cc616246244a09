// Package ui keeps the console's presentation preferences: the skin and
// the layout visibility flags.
package ui

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/halolight/console/internal/client/storage"
	"github.com/halolight/console/internal/logger"
)

// ErrUnknownSkin is returned for a skin outside the preset list.
var ErrUnknownSkin = errors.New("unknown skin")

// Settings are the persisted UI preferences.
type Settings struct {
	Skin              Skin `json:"skin"`
	ShowFooter        bool `json:"showFooter"`
	ShowTabBar        bool `json:"showTabBar"`
	MobileHeaderFixed bool `json:"mobileHeaderFixed"`
	MobileTabBarFixed bool `json:"mobileTabBarFixed"`
}

// DefaultSettings returns the default skin with every element shown and
// fixed.
func DefaultSettings() Settings {
	return Settings{
		Skin:              SkinDefault,
		ShowFooter:        true,
		ShowTabBar:        true,
		MobileHeaderFixed: true,
		MobileTabBarFixed: true,
	}
}

// Visibility holds layout flags to change. Nil fields are kept.
type Visibility struct {
	ShowFooter        *bool `json:"showFooter,omitempty"`
	ShowTabBar        *bool `json:"showTabBar,omitempty"`
	MobileHeaderFixed *bool `json:"mobileHeaderFixed,omitempty"`
	MobileTabBarFixed *bool `json:"mobileTabBarFixed,omitempty"`
}

// Patch is a partial Settings update.
type Patch struct {
	Skin *Skin `json:"skin,omitempty"`
	Visibility
}

// Store manages the persisted Settings and mirrors the skin onto a
// Document.
type Store struct {
	record *storage.Record[Settings]
	doc    Document
	log    *zap.Logger
}

// NewStore returns a Store persisting to store. doc may be nil.
func NewStore(store storage.Store, doc Document, log *zap.Logger) *Store {
	log = logger.OrNop(log)
	return &Store{
		record: storage.NewRecord(store, storage.UISettingsKey, DefaultSettings, log),
		doc:    doc,
		log:    log,
	}
}

// LoadSettings returns the stored settings. Missing fields keep their
// defaults and an unknown skin reads as the default skin.
func (s *Store) LoadSettings() Settings {
	settings := s.record.Load()
	if !settings.Skin.Valid() {
		s.log.Warn("ignoring unknown stored skin", zap.String("skin", string(settings.Skin)))
		settings.Skin = SkinDefault
	}
	return settings
}

// SaveSettings merges p into the stored settings.
func (s *Store) SaveSettings(p Patch) error {
	if p.Skin != nil && !p.Skin.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownSkin, *p.Skin)
	}
	s.record.Merge(p)
	return nil
}

// ApplySkin stores skin and reflects it onto the document. The default
// skin clears the attribute.
func (s *Store) ApplySkin(skin Skin) error {
	if err := s.SaveSettings(Patch{Skin: &skin}); err != nil {
		return err
	}
	s.reflect(skin)
	return nil
}

func (s *Store) reflect(skin Skin) {
	if s.doc == nil {
		return
	}
	if skin == SkinDefault {
		s.doc.RemoveAttribute(SkinAttribute)
		return
	}
	s.doc.SetAttribute(SkinAttribute, string(skin))
}

// SetVisibility stores the flags set in v.
func (s *Store) SetVisibility(v Visibility) {
	s.record.Merge(v)
}

// Reset forgets the stored settings and clears the skin attribute.
func (s *Store) Reset() {
	s.record.Clear()
	if s.doc != nil {
		s.doc.RemoveAttribute(SkinAttribute)
	}
}

// Init applies the stored skin to the document.
func (s *Store) Init() {
	if s.doc == nil {
		return
	}
	if err := s.ApplySkin(s.LoadSettings().Skin); err != nil {
		s.log.Error("failed to apply stored skin", zap.Error(err))
	}
}

// CurrentSkin returns the stored skin.
func (s *Store) CurrentSkin() Skin {
	return s.LoadSettings().Skin
}
