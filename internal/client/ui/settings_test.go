package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halolight/console/internal/client/storage"
)

func boolPtr(b bool) *bool { return &b }
func skinPtr(s Skin) *Skin { return &s }

func TestLoadSettings_Defaults(t *testing.T) {
	s := NewStore(storage.NewMemoryStore(), nil, nil)
	assert.Equal(t, DefaultSettings(), s.LoadSettings())
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		want  Settings
	}{
		{
			name:  "skin only",
			patch: Patch{Skin: skinPtr(SkinOcean)},
			want: Settings{Skin: SkinOcean, ShowFooter: true, ShowTabBar: true,
				MobileHeaderFixed: true, MobileTabBarFixed: true},
		},
		{
			name:  "one flag",
			patch: Patch{Visibility: Visibility{ShowFooter: boolPtr(false)}},
			want: Settings{Skin: SkinDefault, ShowFooter: false, ShowTabBar: true,
				MobileHeaderFixed: true, MobileTabBarFixed: true},
		},
		{
			name: "several fields",
			patch: Patch{Skin: skinPtr(SkinRose), Visibility: Visibility{
				ShowTabBar: boolPtr(false), MobileTabBarFixed: boolPtr(false)}},
			want: Settings{Skin: SkinRose, ShowFooter: true, ShowTabBar: false,
				MobileHeaderFixed: true, MobileTabBarFixed: false},
		},
		{
			name:  "empty patch",
			patch: Patch{},
			want:  DefaultSettings(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(storage.NewMemoryStore(), nil, nil)
			require.NoError(t, s.SaveSettings(tt.patch))
			assert.Equal(t, tt.want, s.LoadSettings())
		})
	}
}

func TestSaveSettings_KeepsPriorValues(t *testing.T) {
	s := NewStore(storage.NewMemoryStore(), nil, nil)

	require.NoError(t, s.SaveSettings(Patch{Skin: skinPtr(SkinTeal)}))
	s.SetVisibility(Visibility{ShowFooter: boolPtr(false)})
	require.NoError(t, s.SaveSettings(Patch{Visibility: Visibility{ShowFooter: boolPtr(true), ShowTabBar: boolPtr(false)}}))

	got := s.LoadSettings()
	assert.Equal(t, SkinTeal, got.Skin)
	assert.True(t, got.ShowFooter)
	assert.False(t, got.ShowTabBar)
}

func TestSaveSettings_UnknownSkin(t *testing.T) {
	s := NewStore(storage.NewMemoryStore(), nil, nil)
	assert.ErrorIs(t, s.SaveSettings(Patch{Skin: skinPtr("neon")}), ErrUnknownSkin)
	assert.Equal(t, SkinDefault, s.CurrentSkin())
}

func TestLoadSettings_PartialAndUnknown(t *testing.T) {
	backend := storage.NewMemoryStore()
	require.NoError(t, backend.Set(storage.UISettingsKey, `{"state":{"skin":"neon","showFooter":false},"version":0}`))

	got := NewStore(backend, nil, nil).LoadSettings()
	assert.Equal(t, SkinDefault, got.Skin)
	assert.False(t, got.ShowFooter)
	assert.True(t, got.ShowTabBar)
	assert.True(t, got.MobileHeaderFixed)
}

func TestApplySkin(t *testing.T) {
	doc := &Attributes{}
	s := NewStore(storage.NewMemoryStore(), doc, nil)

	require.NoError(t, s.ApplySkin(SkinAurora))
	v, ok := doc.Attribute(SkinAttribute)
	assert.True(t, ok)
	assert.Equal(t, "aurora", v)
	assert.Equal(t, SkinAurora, s.CurrentSkin())

	require.NoError(t, s.ApplySkin(SkinDefault))
	_, ok = doc.Attribute(SkinAttribute)
	assert.False(t, ok)
	assert.Equal(t, SkinDefault, s.CurrentSkin())

	assert.ErrorIs(t, s.ApplySkin("neon"), ErrUnknownSkin)
	_, ok = doc.Attribute(SkinAttribute)
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	backend := storage.NewMemoryStore()
	doc := &Attributes{}
	s := NewStore(backend, doc, nil)
	require.NoError(t, s.ApplySkin(SkinBlue))
	s.SetVisibility(Visibility{ShowFooter: boolPtr(false)})

	s.Reset()

	_, ok, _ := backend.Get(storage.UISettingsKey)
	assert.False(t, ok)
	_, ok = doc.Attribute(SkinAttribute)
	assert.False(t, ok)
	assert.Equal(t, DefaultSettings(), s.LoadSettings())
}

func TestInit(t *testing.T) {
	backend := storage.NewMemoryStore()
	require.NoError(t, backend.Set(storage.UISettingsKey, `{"state":{"skin":"sunset"},"version":0}`))

	doc := &Attributes{}
	NewStore(backend, doc, nil).Init()

	v, _ := doc.Attribute(SkinAttribute)
	assert.Equal(t, "sunset", v)

	// without a document nothing is written
	empty := storage.NewMemoryStore()
	NewStore(empty, nil, nil).Init()
	assert.Zero(t, empty.Len())
}

func TestPresets(t *testing.T) {
	got := Presets()
	require.Len(t, got, 11)
	assert.Equal(t, Preset{Value: SkinDefault, Label: "默认", Description: "经典黑白配色"}, got[0])
	for _, p := range got {
		assert.True(t, p.Value.Valid(), p.Value)
	}

	got[0].Label = "changed"
	assert.Equal(t, "默认", Presets()[0].Label)
}
