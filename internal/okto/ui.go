package okto

import (
	"context"
	"fmt"
	"strings"

	"github.com/oktotech/okto-go/internal/events"
)

// AuthType is the login method the onboarding page opens with.
type AuthType string

const (
	AuthPhone AuthType = "Phone"
	AuthEmail AuthType = "Email"
	AuthGAuth AuthType = "GAuth"
)

// ParseAuthType accepts the auth type names case-insensitively.
func ParseAuthType(s string) (AuthType, error) {
	for _, t := range []AuthType{AuthPhone, AuthEmail, AuthGAuth} {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown auth type %q (valid: Phone, Email, GAuth)", s)
}

// BrandData customises the onboarding page header.
type BrandData struct {
	Title    string
	Subtitle string
	IconURL  string
}

// WidgetInjection is posted to the wallet widget once it loads.
type WidgetInjection struct {
	Theme
	Environment string `json:"ENVIRONMENT"`
	AuthToken   string `json:"authToken"`
}

// OnboardingInjection is posted to the onboarding page once it loads.
type OnboardingInjection struct {
	Theme
	Environment     string `json:"ENVIRONMENT"`
	APIKey          string `json:"API_KEY"`
	PrimaryAuthType string `json:"primaryAuthType"`
	BrandTitle      string `json:"brandTitle"`
	BrandSubtitle   string `json:"brandSubtitle"`
	BrandIconURL    string `json:"brandIconUrl"`
}

// WidgetEvent builds the request to show the wallet widget for the current session.
func (c *Client) WidgetEvent() events.UIEvent {
	token := ""
	if cred := c.session.Current(); cred != nil {
		token = cred.AuthToken
	}
	return events.UIEvent{
		Kind: events.ShowWidget,
		URL:  c.env.WidgetURL(),
		Data: WidgetInjection{
			Theme:       c.Theme(),
			Environment: c.env.String(),
			AuthToken:   token,
		},
	}
}

// OnboardingEvent builds the request to show the onboarding page.
func (c *Client) OnboardingEvent(primary AuthType, brand BrandData) events.UIEvent {
	if primary == "" {
		primary = AuthEmail
	}
	return events.UIEvent{
		Kind: events.ShowOnboarding,
		URL:  c.env.OnboardingURL(),
		Data: OnboardingInjection{
			Theme:           c.Theme(),
			Environment:     c.env.String(),
			APIKey:          c.apiKey,
			PrimaryAuthType: string(primary),
			BrandTitle:      brand.Title,
			BrandSubtitle:   brand.Subtitle,
			BrandIconURL:    brand.IconURL,
		},
	}
}

// ShowWidgetModal asks the host UI to open the wallet widget.
func (c *Client) ShowWidgetModal(ctx context.Context) error {
	return c.emit(ctx, c.WidgetEvent())
}

// ShowOnboardingModal asks the host UI to open the onboarding page.
func (c *Client) ShowOnboardingModal(ctx context.Context, primary AuthType, brand BrandData) error {
	return c.emit(ctx, c.OnboardingEvent(primary, brand))
}

// CloseModal asks the host UI to close whichever page is open.
func (c *Client) CloseModal(ctx context.Context) error {
	return c.emit(ctx, events.UIEvent{Kind: events.CloseModal})
}

func (c *Client) emit(_ context.Context, ev events.UIEvent) error {
	if c.bus == nil {
		c.logger.Debug("no event bus, dropping UI event", "kind", ev.Kind)
		return nil
	}
	return c.bus.PublishUI(ev)
}
