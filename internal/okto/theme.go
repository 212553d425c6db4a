package okto

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/oktotech/okto-go/internal/sdk"
)

// ThemeKey is the store key holding a customised theme.
const ThemeKey = "OKTO_THEME"

// Theme is the palette injected into the hosted pages. Colors are 0xAARRGGBB strings.
type Theme struct {
	TextPrimaryColor   string `json:"textPrimaryColor"`
	TextSecondaryColor string `json:"textSecondaryColor"`
	TextTertiaryColor  string `json:"textTertiaryColor"`
	Accent1Color       string `json:"accent1Color"`
	Accent2Color       string `json:"accent2Color"`
	StrokeBorderColor  string `json:"strokeBorderColor"`
	StrokeDividerColor string `json:"strokeDividerColor"`
	SurfaceColor       string `json:"surfaceColor"`
	BackgroundColor    string `json:"backgroundColor"`
}

// DefaultTheme returns the stock dark palette.
func DefaultTheme() Theme {
	return Theme{
		TextPrimaryColor:   "0xFFFFFFFF",
		TextSecondaryColor: "0xB3FFFFFF",
		TextTertiaryColor:  "0xffA8A8A8",
		Accent1Color:       "0xFF905BF5",
		Accent2Color:       "0x80905BF5",
		StrokeBorderColor:  "0xFFACACAB",
		StrokeDividerColor: "0x4DA8A8A8",
		SurfaceColor:       "0xFF262528",
		BackgroundColor:    "0xFF000000",
	}
}

func (t *Theme) fields() map[string]*string {
	return map[string]*string{
		"textPrimaryColor":   &t.TextPrimaryColor,
		"textSecondaryColor": &t.TextSecondaryColor,
		"textTertiaryColor":  &t.TextTertiaryColor,
		"accent1Color":       &t.Accent1Color,
		"accent2Color":       &t.Accent2Color,
		"strokeBorderColor":  &t.StrokeBorderColor,
		"strokeDividerColor": &t.StrokeDividerColor,
		"surfaceColor":       &t.SurfaceColor,
		"backgroundColor":    &t.BackgroundColor,
	}
}

// Merge returns t with every non-empty field of patch applied.
func (t Theme) Merge(patch Theme) Theme {
	out := t
	dst := out.fields()
	for name, v := range patch.fields() {
		if *v != "" {
			*dst[name] = *v
		}
	}
	return out
}

// Set assigns one field by its JSON name.
func (t *Theme) Set(name, value string) error {
	f, ok := t.fields()[name]
	if !ok {
		return fmt.Errorf("unknown theme field %q (valid: %v)", name, ThemeFieldNames())
	}
	*f = value
	return nil
}

// ThemeFieldNames lists the JSON names of the theme fields.
func ThemeFieldNames() []string {
	var t Theme
	names := make([]string, 0, 9)
	for name := range t.fields() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadTheme reads a saved theme from kv merged over the default.
func LoadTheme(ctx context.Context, kv sdk.KV) (Theme, error) {
	raw, ok, err := kv.Get(ctx, ThemeKey)
	if err != nil {
		return DefaultTheme(), &sdk.StoreError{Operation: "load", Key: ThemeKey, Cause: err}
	}
	if !ok || raw == "" {
		return DefaultTheme(), nil
	}
	var saved Theme
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return DefaultTheme(), &sdk.StoreError{Operation: "load", Key: ThemeKey, Message: "invalid theme", Cause: err}
	}
	return DefaultTheme().Merge(saved), nil
}

// SaveTheme writes t to kv.
func SaveTheme(ctx context.Context, kv sdk.KV, t Theme) error {
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	if err := kv.Set(ctx, ThemeKey, string(data)); err != nil {
		return &sdk.StoreError{Operation: "save", Key: ThemeKey, Cause: err}
	}
	return nil
}
