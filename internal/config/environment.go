package config

import (
	"fmt"
	"strings"
)

// Environment selects the Okto deployment the SDK talks to.
type Environment string

const (
	Staging    Environment = "STAGING"
	Sandbox    Environment = "SANDBOX"
	Production Environment = "PRODUCTION"
)

type endpoints struct {
	base       string
	onboarding string
	widget     string
}

var environments = map[Environment]endpoints{
	Production: {
		base:       "https://apigw.okto.tech",
		onboarding: "https://3p.okto.tech/login_screen/#/login_screen",
		widget:     "https://3p.okto.tech/login_screen#/home",
	},
	Staging: {
		base:       "https://3p-bff.oktostage.com",
		onboarding: "https://3p.oktostage.com/#/login_screen",
		widget:     "https://3p.oktostage.com/#/home",
	},
	Sandbox: {
		base:       "https://sandbox-api.okto.tech",
		onboarding: "https://okto-sandbox.firebaseapp.com/#/login_screen",
		widget:     "https://okto-sandbox.firebaseapp.com/#/home",
	},
}

// ParseEnvironment parses a case-insensitive environment name.
func ParseEnvironment(s string) (Environment, error) {
	env := Environment(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := environments[env]; !ok {
		return "", fmt.Errorf("unknown environment %q (want staging, sandbox or production)", s)
	}
	return env, nil
}

// BaseURL returns the API gateway for the environment.
func (e Environment) BaseURL() string { return environments[e].base }

// OnboardingURL returns the hosted onboarding page.
func (e Environment) OnboardingURL() string { return environments[e].onboarding }

// WidgetURL returns the hosted wallet widget page.
func (e Environment) WidgetURL() string { return environments[e].widget }

func (e Environment) String() string { return string(e) }
